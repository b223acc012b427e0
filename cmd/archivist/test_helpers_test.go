package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"archivist/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	filestore  string
	dam        *httptest.Server
	archive    *httptest.Server
	archiveLog *archiveRecorder
}

// archiveRecorder stands in for the archive's S3-like endpoint.
type archiveRecorder struct {
	mu     sync.Mutex
	puts   []string
	reject map[string]int
}

func (a *archiveRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)
	item := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")[0]
	a.mu.Lock()
	a.puts = append(a.puts, r.URL.Path)
	status := a.reject[item]
	a.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *archiveRecorder) items() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.puts...)
}

// setupCLITestEnv starts a fake DAM and archive and writes a config pointing
// at both. Assets 101 and 102 have primary files; 101 also has a wav
// alternate.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, key := range []string{"RESOURCESPACE_URL", "RESOURCESPACE_USER", "RESOURCESPACE_API_KEY", "IA_ACCESS_KEY", "IA_SECRET_KEY"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:    base,
		stateDir:   filepath.Join(base, "state"),
		filestore:  filepath.Join(base, "filestore"),
		archiveLog: &archiveRecorder{reject: map[string]int{}},
	}
	paths := map[string]string{
		"101:mp4:": filepath.Join(env.filestore, "101.mp4"),
		"101:wav:7": filepath.Join(env.filestore, "101_alt_7.wav"),
		"102:mp4:": filepath.Join(env.filestore, "102.mp4"),
	}
	for _, path := range paths {
		testsupport.WriteFile(t, path, 1024)
	}

	env.dam = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("function") {
		case "get_resource_path":
			key := q.Get("param1") + ":" + q.Get("param5") + ":" + q.Get("param8")
			path, ok := paths[key]
			if !ok {
				fmt.Fprint(w, "false")
				return
			}
			fmt.Fprintf(w, "%q", strings.ReplaceAll(path, "/", `\/`))
		case "get_alternative_files":
			if q.Get("param1") == "101" {
				fmt.Fprint(w, `[{"ref":"7","name":"Audio","file_extension":"wav"}]`)
				return
			}
			fmt.Fprint(w, "[]")
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(env.dam.Close)
	env.archive = httptest.NewServer(env.archiveLog)
	t.Cleanup(env.archive.Close)

	env.configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
work_dir = %q

[resourcespace]
base_url = %q
user = "tester"
api_key = "secret-key"
requests_per_second = 1000.0
burst = 10

[archive]
endpoint = %q
access_key = "access"
secret_key = "secret"

[batch]
verify_files = true

[logging]
level = "error"
`, env.stateDir, filepath.Join(base, "logs"), filepath.Join(base, "work"), env.dam.URL, env.archive.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeBatch(t *testing.T, name string, rows ...[]string) string {
	t.Helper()
	header := []string{"Resource ID(s)", "Access copy filename", "Title", "Directors / Filmmakers"}
	return testsupport.WriteCSV(t, filepath.Join(e.baseDir, name), append([][]string{header}, rows...))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	fullArgs := args
	if configPath != "" {
		fullArgs = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(fullArgs)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substring string) {
	t.Helper()
	if !strings.Contains(output, substring) {
		t.Fatalf("expected output to contain %q, got:\n%s", substring, output)
	}
}
