package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/media/ffprobe"
	"archivist/internal/services"
)

// OutputSuffix is appended to the stem of transcoded files.
const OutputSuffix = "_square-pixel"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// Option configures the Squarifier.
type Option func(*Squarifier)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Squarifier) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithProber injects a custom probe function (primarily for tests).
func WithProber(probe Prober) Option {
	return func(s *Squarifier) {
		if probe != nil {
			s.probe = probe
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Squarifier) { s.logger = logger }
}

// Squarifier transcodes non-square-pixel video.
type Squarifier struct {
	ffmpeg  string
	ffprobe string
	scale   string
	workDir string
	exec    Executor
	probe   Prober
	logger  *slog.Logger
}

// New constructs a Squarifier writing into workDir.
func New(ffmpegBinary, ffprobeBinary, scale, workDir string, opts ...Option) (*Squarifier, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	scale = strings.TrimSpace(scale)
	if scale == "" {
		return nil, errors.New("ffmpeg scale required")
	}
	s := &Squarifier{
		ffmpeg:  ffmpegBinary,
		ffprobe: strings.TrimSpace(ffprobeBinary),
		scale:   scale,
		workDir: strings.TrimSpace(workDir),
		exec:    commandExecutor{},
		probe:   ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "ffmpeg")
	return s, nil
}

// NewFromConfig constructs a Squarifier from the media section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Squarifier, error) {
	return New(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary, cfg.Media.Scale, cfg.Paths.WorkDir, WithLogger(logger))
}

// Args returns the ffmpeg arguments that rescale input into output.
func (s *Squarifier) Args(input, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vf", fmt.Sprintf("scale=%s,setsar=1:1", s.scale),
		output,
	}
}

// OutputPath returns where the square-pixel copy of input is written.
func (s *Squarifier) OutputPath(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + OutputSuffix + ext
	dir := s.workDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// Transform returns files with the primary replaced by a square-pixel copy
// when it needs one. Alternates are neither probed nor rewritten. cleanup
// removes the copy and is safe to call more than once.
func (s *Squarifier) Transform(ctx context.Context, files []string) ([]string, func(), error) {
	if len(files) == 0 {
		return files, func() {}, nil
	}
	primary := files[0]
	needs, err := s.needsSquaring(ctx, primary)
	if err != nil {
		return nil, func() {}, services.Wrap(services.ErrTransform, "transforming", "probe", filepath.Base(primary), err)
	}
	if !needs {
		return files, func() {}, nil
	}

	target := s.OutputPath(primary)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, func() {}, services.Wrap(services.ErrTransform, "transforming", "prepare", target, err)
	}
	output, err := s.exec.Run(ctx, s.ffmpeg, s.Args(primary, target))
	if err != nil {
		_ = os.Remove(target)
		return nil, func() {}, services.Wrap(services.ErrTransform, "transforming", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	if _, err := os.Stat(target); err != nil {
		return nil, func() {}, services.Wrap(services.ErrTransform, "transforming", "ffmpeg", "no output produced", err)
	}
	logging.WithContext(ctx, s.logger).Info("rescaled to square pixels",
		logging.String("input", filepath.Base(primary)),
		logging.String("output", filepath.Base(target)),
	)

	out := append([]string{target}, files[1:]...)
	var once sync.Once
	cleanup := func() {
		once.Do(func() { _ = os.Remove(target) })
	}
	return out, cleanup, nil
}

func (s *Squarifier) needsSquaring(ctx context.Context, path string) (bool, error) {
	result, err := s.probe(ctx, s.ffprobe, path)
	if err != nil {
		return false, err
	}
	video, ok := result.PrimaryVideo()
	if !ok {
		return false, nil
	}
	return !video.SquarePixels(), nil
}
