package deps

import "archivist/internal/config"

// MediaRequirements lists the binaries square-pixel transcoding shells out
// to. They are optional unless media.square_pixels is on.
func MediaRequirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	optional := !cfg.Media.SquarePixels
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Rescales video to square pixels before upload",
			VersionArgs: []string{"-hide_banner", "-version"},
			Optional:    optional,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Reads pixel aspect ratio to skip already-square video",
			VersionArgs: []string{"-hide_banner", "-version"},
			Optional:    optional,
		},
	}
}
