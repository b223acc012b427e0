package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are filled with placeholders so validation passes; service URLs
// are left for the caller to point at httptest servers.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.ResourceSpace.User = "tester"
	cfgVal.ResourceSpace.APIKey = "test-key"
	cfgVal.ResourceSpace.RequestsPerSecond = 0
	cfgVal.Archive.AccessKey = "access"
	cfgVal.Archive.SecretKey = "secret"
	cfgVal.Batch.VerifyFiles = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithResourceSpace points the DAM client at baseURL.
func WithResourceSpace(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ResourceSpace.BaseURL = baseURL
	}
}

// WithArchive points the upload client at endpoint.
func WithArchive(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Endpoint = endpoint
	}
}

// WithSquarePixels enables square-pixel transcoding.
func WithSquarePixels() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.SquarePixels = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
