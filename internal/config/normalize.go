package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeResourceSpace()
	c.normalizeArchive()
	c.normalizeFields()
	c.normalizeMapping()
	c.normalizeMedia()
	c.normalizeFetch()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.RetryDir, err = expandPath(strings.TrimSpace(c.Paths.RetryDir)); err != nil {
		return fmt.Errorf("paths.retry_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeResourceSpace() {
	c.ResourceSpace.BaseURL = strings.TrimRight(strings.TrimSpace(c.ResourceSpace.BaseURL), "/")
	if c.ResourceSpace.BaseURL == "" {
		c.ResourceSpace.BaseURL = envValue("RESOURCESPACE_URL")
	}
	c.ResourceSpace.User = strings.TrimSpace(c.ResourceSpace.User)
	if c.ResourceSpace.User == "" {
		c.ResourceSpace.User = envValue("RESOURCESPACE_USER")
	}
	c.ResourceSpace.APIKey = strings.TrimSpace(c.ResourceSpace.APIKey)
	if c.ResourceSpace.APIKey == "" {
		c.ResourceSpace.APIKey = envValue("RESOURCESPACE_API_KEY")
	}
	if c.ResourceSpace.RequestsPerSecond <= 0 {
		c.ResourceSpace.RequestsPerSecond = defaultResourceSpaceRPS
	}
	if c.ResourceSpace.Burst <= 0 {
		c.ResourceSpace.Burst = defaultResourceSpaceBurst
	}
	if c.ResourceSpace.TimeoutSeconds <= 0 {
		c.ResourceSpace.TimeoutSeconds = defaultResourceSpaceTimeout
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.Endpoint = strings.TrimRight(strings.TrimSpace(c.Archive.Endpoint), "/")
	if c.Archive.Endpoint == "" {
		c.Archive.Endpoint = defaultArchiveEndpoint
	}
	c.Archive.DetailsURL = strings.TrimRight(strings.TrimSpace(c.Archive.DetailsURL), "/")
	if c.Archive.DetailsURL == "" {
		c.Archive.DetailsURL = defaultArchiveDetailsURL
	}
	c.Archive.AccessKey = strings.TrimSpace(c.Archive.AccessKey)
	if c.Archive.AccessKey == "" {
		c.Archive.AccessKey = envValue("IA_ACCESS_KEY")
	}
	c.Archive.SecretKey = strings.TrimSpace(c.Archive.SecretKey)
	if c.Archive.SecretKey == "" {
		c.Archive.SecretKey = envValue("IA_SECRET_KEY")
	}
	c.Archive.Collections = dedupeTrimmed(c.Archive.Collections, false)
	c.Archive.RightsStatement = strings.TrimSpace(c.Archive.RightsStatement)
	c.Archive.NotesCredit = strings.TrimSpace(c.Archive.NotesCredit)
	if c.Archive.TimeoutSeconds <= 0 {
		c.Archive.TimeoutSeconds = defaultArchiveTimeout
	}
}

func (c *Config) normalizeFields() {
	for i := range c.Fields.Rules {
		rule := &c.Fields.Rules[i]
		rule.Name = strings.ToLower(strings.TrimSpace(rule.Name))
		rule.Strategy = strings.ToLower(strings.TrimSpace(rule.Strategy))
		rule.Columns = dedupeTrimmed(rule.Columns, false)
	}
}

func (c *Config) normalizeMapping() {
	c.Mapping.MissingMarkers = dedupeTrimmed(c.Mapping.MissingMarkers, true)
	c.Mapping.RequiredFields = dedupeTrimmed(c.Mapping.RequiredFields, true)
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.Scale = strings.ToLower(strings.TrimSpace(c.Media.Scale))
	if c.Media.Scale == "" {
		c.Media.Scale = defaultSquareScale
	}
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	c.Fetch.S3Endpoint = strings.TrimSpace(c.Fetch.S3Endpoint)
	c.Fetch.S3AccessKey = strings.TrimSpace(c.Fetch.S3AccessKey)
	if c.Fetch.S3AccessKey == "" {
		c.Fetch.S3AccessKey = envValue("S3_ACCESS_KEY")
	}
	c.Fetch.S3SecretKey = strings.TrimSpace(c.Fetch.S3SecretKey)
	if c.Fetch.S3SecretKey == "" {
		c.Fetch.S3SecretKey = envValue("S3_SECRET_KEY")
	}
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envValue(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// dedupeTrimmed drops blanks and duplicates while keeping the first occurrence order.
func dedupeTrimmed(values []string, foldCase bool) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := trimmed
		if foldCase {
			key = strings.ToLower(trimmed)
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
