package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"archivist/internal/media/ffmpeg"
	"archivist/internal/media/ffprobe"
	"archivist/internal/services"
)

// outputExecutor records calls and creates the output file named by the last argument.
type outputExecutor struct {
	calls [][]string
	fail  bool
}

func (e *outputExecutor) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	e.calls = append(e.calls, append([]string(nil), args...))
	if e.fail {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}
	return nil, os.WriteFile(args[len(args)-1], []byte("square"), 0o644)
}

func probeBySAR(sar map[string]string) ffmpeg.Prober {
	return func(_ context.Context, _ string, path string) (ffprobe.Result, error) {
		value, ok := sar[filepath.Base(path)]
		if !ok {
			return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}}, nil
		}
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", SampleAspectRatio: value}}}, nil
	}
}

func TestTransformRescalesOnlyNonSquareVideo(t *testing.T) {
	work := t.TempDir()
	exec := &outputExecutor{}
	squarifier, err := ffmpeg.New("ffmpeg", "ffprobe", "720x540", work,
		ffmpeg.WithExecutor(exec),
		ffmpeg.WithProber(probeBySAR(map[string]string{"reel.mp4": "8:9", "square.mp4": "1:1"})),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	files := []string{"/fs/reel.mp4", "/fs/square.mp4", "/fs/reel.wav"}
	out, cleanup, err := squarifier.Transform(context.Background(), files)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	want := []string{filepath.Join(work, "reel_square-pixel.mp4"), "/fs/square.mp4", "/fs/reel.wav"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("Transform = %v, want %v", out, want)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(exec.calls))
	}
	wantArgs := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", "/fs/reel.mp4", "-vf", "scale=720x540,setsar=1:1", want[0]}
	if !reflect.DeepEqual(exec.calls[0], wantArgs) {
		t.Fatalf("args = %q, want %q", exec.calls[0], wantArgs)
	}

	cleanup()
	if _, err := os.Stat(want[0]); !os.IsNotExist(err) {
		t.Fatalf("expected cleanup to remove %s, stat err=%v", want[0], err)
	}
	cleanup()
}

func TestTransformLeavesAlternatesUntouched(t *testing.T) {
	work := t.TempDir()
	exec := &outputExecutor{}
	var probed []string
	squarifier, err := ffmpeg.New("ffmpeg", "ffprobe", "720x540", work,
		ffmpeg.WithExecutor(exec),
		ffmpeg.WithProber(func(_ context.Context, _ string, path string) (ffprobe.Result, error) {
			probed = append(probed, path)
			if path != "/fs/reel.mp4" {
				return ffprobe.Result{}, errors.New("permission denied")
			}
			return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", SampleAspectRatio: "8:9"}}}, nil
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	files := []string{"/fs/reel.mp4", "/fs/reel_alt_7.mp4", "/fs/reel_alt_8.wav"}
	out, cleanup, err := squarifier.Transform(context.Background(), files)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	defer cleanup()
	want := []string{filepath.Join(work, "reel_square-pixel.mp4"), "/fs/reel_alt_7.mp4", "/fs/reel_alt_8.wav"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("Transform = %v, want %v", out, want)
	}
	if !reflect.DeepEqual(probed, []string{"/fs/reel.mp4"}) {
		t.Fatalf("probed = %v, want only the primary", probed)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(exec.calls))
	}
	if !reflect.DeepEqual(files, []string{"/fs/reel.mp4", "/fs/reel_alt_7.mp4", "/fs/reel_alt_8.wav"}) {
		t.Fatalf("input slice modified: %v", files)
	}
}

func TestTransformSquarePrimaryReturnsInput(t *testing.T) {
	exec := &outputExecutor{}
	squarifier, err := ffmpeg.New("ffmpeg", "ffprobe", "720x540", t.TempDir(),
		ffmpeg.WithExecutor(exec),
		ffmpeg.WithProber(probeBySAR(map[string]string{"reel.mp4": "1:1", "reel_alt_7.mp4": "8:9"})),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	files := []string{"/fs/reel.mp4", "/fs/reel_alt_7.mp4"}
	out, cleanup, err := squarifier.Transform(context.Background(), files)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	cleanup()
	if !reflect.DeepEqual(out, files) || len(exec.calls) != 0 {
		t.Fatalf("Transform = %v with %d ffmpeg calls", out, len(exec.calls))
	}
}

func TestTransformFailureIsTransformError(t *testing.T) {
	work := t.TempDir()
	squarifier, err := ffmpeg.New("ffmpeg", "ffprobe", "720x540", work,
		ffmpeg.WithExecutor(&outputExecutor{fail: true}),
		ffmpeg.WithProber(probeBySAR(map[string]string{"reel.mp4": "10:11"})),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	out, _, err := squarifier.Transform(context.Background(), []string{"/fs/reel.mp4"})
	if !errors.Is(err, services.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no output on failure, got %v", out)
	}
}

func TestTransformProbeFailure(t *testing.T) {
	squarifier, err := ffmpeg.New("ffmpeg", "ffprobe", "720x540", t.TempDir(),
		ffmpeg.WithProber(func(context.Context, string, string) (ffprobe.Result, error) {
			return ffprobe.Result{}, errors.New("moov atom not found")
		}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, _, err := squarifier.Transform(context.Background(), []string{"/fs/broken.mp4"}); !errors.Is(err, services.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}

func TestTransformWithStubBinaries(t *testing.T) {
	binDir := t.TempDir()
	probe := filepath.Join(binDir, "ffprobe")
	probeScript := "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"video\",\"sample_aspect_ratio\":\"8:9\"}],\"format\":{}}'\n"
	if err := os.WriteFile(probe, []byte(probeScript), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	encoder := filepath.Join(binDir, "ffmpeg")
	// The output path is the last argument.
	encoderScript := "#!/bin/sh\nfor last; do :; done\necho square > \"$last\"\n"
	if err := os.WriteFile(encoder, []byte(encoderScript), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	input := filepath.Join(t.TempDir(), "reel.mov")
	if err := os.WriteFile(input, []byte("raw"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	squarifier, err := ffmpeg.New(encoder, probe, "720x540", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	out, cleanup, err := squarifier.Transform(context.Background(), []string{input})
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	defer cleanup()
	if out[0] != filepath.Join(filepath.Dir(input), "reel_square-pixel.mov") {
		t.Fatalf("unexpected output path %q", out[0])
	}
	data, err := os.ReadFile(out[0])
	if err != nil || string(data) != "square\n" {
		t.Fatalf("unexpected output content %q (%v)", data, err)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := ffmpeg.New("", "ffprobe", "720x540", ""); err == nil {
		t.Fatal("expected error for empty binary")
	}
	if _, err := ffmpeg.New("ffmpeg", "ffprobe", " ", ""); err == nil {
		t.Fatal("expected error for empty scale")
	}
}
