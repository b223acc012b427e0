package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/config"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	versioned := writeStub(t, dir, "versioned", "echo 'versioned version 6.1.1 Copyright (c) the authors'\n")
	broken := writeStub(t, dir, "broken", "exit 3\n")
	plain := writeStub(t, dir, "plain", "exit 0\n")

	results := CheckBinaries(context.Background(), []Requirement{
		{Name: "Versioned", Command: versioned, VersionArgs: []string{"-version"}},
		{Name: "Broken", Command: broken, VersionArgs: []string{"-version"}},
		{Name: "Plain", Command: " " + plain + " "},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	tests := []struct {
		name      string
		available bool
		version   string
		detail    bool
	}{
		{"Versioned", true, "6.1.1", false},
		{"Broken", true, "", true},
		{"Plain", true, "", false},
		{"Missing", false, "", true},
		{"Blank", false, "", true},
	}
	for i, tt := range tests {
		got := results[i]
		if got.Name != tt.name {
			t.Fatalf("result %d = %s, want %s", i, got.Name, tt.name)
		}
		if got.Available != tt.available {
			t.Errorf("%s: available = %v, want %v", tt.name, got.Available, tt.available)
		}
		if got.Version != tt.version {
			t.Errorf("%s: version = %q, want %q", tt.name, got.Version, tt.version)
		}
		if (got.Detail != "") != tt.detail {
			t.Errorf("%s: detail = %q", tt.name, got.Detail)
		}
	}
	if results[2].Command != plain || results[2].Path != plain {
		t.Fatalf("plain command/path = %q/%q", results[2].Command, results[2].Path)
	}
	if results[3].Path != "" {
		t.Fatalf("missing binary should have no path, got %q", results[3].Path)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ffprobe version n7.0 Copyright (c) 2007-2024\nbuilt with gcc\n", "n7.0"},
		{"tool 1.2\n", "tool 1.2"},
		{"", ""},
		{"Version\n", "Version"},
	}
	for _, tt := range tests {
		if got := parseVersion([]byte(tt.in)); got != tt.want {
			t.Errorf("parseVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMediaRequirementsFollowSquarePixels(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg", "echo 'ffmpeg version 6.0'\n")

	cfg := config.Default()
	cfg.Media.FFmpegBinary = ffmpeg
	cfg.Media.FFprobeBinary = "clearly-not-present-ffprobe"

	statuses := CheckBinaries(context.Background(), MediaRequirements(&cfg))
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Version != "6.0" {
		t.Fatalf("ffmpeg version = %q", statuses[0].Version)
	}
	if missing := MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("expected media binaries to be optional when disabled, got %#v", missing)
	}

	cfg.Media.SquarePixels = true
	missing := MissingRequired(CheckBinaries(context.Background(), MediaRequirements(&cfg)))
	if len(missing) != 1 || missing[0].Name != "FFprobe" {
		t.Fatalf("expected only ffprobe to be missing, got %#v", missing)
	}
}

func TestMediaRequirementsNilConfig(t *testing.T) {
	if reqs := MediaRequirements(nil); reqs != nil {
		t.Fatalf("expected no requirements, got %#v", reqs)
	}
}
