package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Source canonical name > Source canonical \"name\"")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsMissingCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(t.TempDir(), "sample.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", sample}, ""); err != nil {
		t.Fatalf("config init: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "validate"}, sample)
	if err == nil {
		t.Fatalf("expected incomplete configuration, got:\n%s", out)
	}
	requireContains(t, out, "resourcespace.user is required")
	requireContains(t, out, "archive.access_key and archive.secret_key are required")
	_ = env
}

func TestConfigShowMasksCredentials(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	requireContains(t, out, "# effective configuration from "+env.configPath)
	requireContains(t, out, "[resourcespace]")
	requireContains(t, out, "********")
	if strings.Contains(out, "secret-key") {
		t.Fatalf("api key leaked:\n%s", out)
	}
}
