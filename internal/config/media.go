package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMediaType reports an unrecognised media type selection.
var ErrInvalidMediaType = errors.New("invalid media type")

// MediaType is the operator's selection of asset kind for a batch.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// ParseMediaType accepts the long names, their single-letter shortcuts and
// the DAM file extensions.
func ParseMediaType(value string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "v", "video", "mp4":
		return MediaVideo, nil
	case "a", "audio", "mp3":
		return MediaAudio, nil
	default:
		return "", fmt.Errorf("%w %q: use video (v) or audio (a)", ErrInvalidMediaType, value)
	}
}

// Extension returns the DAM file extension requested for the primary resource.
func (m MediaType) Extension() string {
	if m == MediaAudio {
		return "mp3"
	}
	return "mp4"
}

// ArchiveMediaType returns the archive's mediatype value.
func (m MediaType) ArchiveMediaType() string {
	if m == MediaAudio {
		return "audio"
	}
	return "movies"
}

// IsVisual reports whether assets of this type carry picture.
func (m MediaType) IsVisual() bool {
	return m == MediaVideo
}

func (m MediaType) String() string {
	return string(m)
}
