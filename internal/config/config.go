package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	RetryDir string `toml:"retry_dir"`
	WorkDir  string `toml:"work_dir"`
}

// ResourceSpace contains connection settings for the DAM query API.
type ResourceSpace struct {
	BaseURL           string  `toml:"base_url"`
	User              string  `toml:"user"`
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Archive contains configuration for the archival repository uploads.
type Archive struct {
	Endpoint        string   `toml:"endpoint"`
	DetailsURL      string   `toml:"details_url"`
	AccessKey       string   `toml:"access_key"`
	SecretKey       string   `toml:"secret_key"`
	Collections     []string `toml:"collections"`
	RightsStatement string   `toml:"rights_statement"`
	NotesCredit     string   `toml:"notes_credit"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
}

// FieldRule overrides one entry of the metadata precedence table.
type FieldRule struct {
	Name     string   `toml:"name"`
	Strategy string   `toml:"strategy"`
	Columns  []string `toml:"columns"`
}

// Fields contains overrides for the source column precedence table.
type Fields struct {
	Rules []FieldRule `toml:"rule"`
}

// Mapping contains target record post-processing settings.
type Mapping struct {
	MissingMarkers []string `toml:"missing_markers"`
	RequiredFields []string `toml:"required_fields"`
}

// Media contains settings for local file normalisation before upload.
type Media struct {
	SquarePixels  bool   `toml:"square_pixels"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Scale         string `toml:"scale"`
}

// Batch contains orchestration settings.
type Batch struct {
	Retries     int  `toml:"retries"`
	VerifyFiles bool `toml:"verify_files"`
}

// Fetch contains settings for downloading remote input artifacts.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	S3Endpoint     string `toml:"s3_endpoint"`
	S3AccessKey    string `toml:"s3_access_key"`
	S3SecretKey    string `toml:"s3_secret_key"`
	S3UseSSL       bool   `toml:"s3_use_ssl"`
}

// Metrics contains configuration for batch metrics export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for archivist.
//
// Configuration sections by subsystem:
//   - Paths: state (ledger, lock), logs, retry artifacts, scratch space
//   - ResourceSpace: signed DAM query API
//   - Archive: upload endpoint, credentials and boilerplate metadata
//   - Fields: source column precedence overrides
//   - Mapping: missing-value markers and required target fields
//   - Media: square-pixel transcoding for video
//   - Batch: retry passes and file verification
//   - Fetch: remote input download (HTTP, Google Drive, S3)
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	ResourceSpace ResourceSpace `toml:"resourcespace"`
	Archive       Archive       `toml:"archive"`
	Fields        Fields        `toml:"fields"`
	Mapping       Mapping       `toml:"mapping"`
	Media         Media         `toml:"media"`
	Batch         Batch         `toml:"batch"`
	Fetch         Fetch         `toml:"fetch"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// A missing .env is the common case.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("archivist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a batch run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.RetryDir) != "" {
		if err := os.MkdirAll(c.Paths.RetryDir, 0o755); err != nil {
			return fmt.Errorf("create retry directory %q: %w", c.Paths.RetryDir, err)
		}
	}
	return nil
}

// LedgerPath returns the SQLite database that records batch runs.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the lock file guarding against concurrent batches.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "archivist.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
