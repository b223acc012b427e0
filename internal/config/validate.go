package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var scalePattern = regexp.MustCompile(`^[0-9]+x[0-9]+$`)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by ValidateDAM and ValidateArchive because offline
// commands (resolve, history) never contact either service.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateFields(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateDAM ensures the DAM query credentials are present.
func (c *Config) ValidateDAM() error {
	if c.ResourceSpace.BaseURL == "" {
		return errors.New("resourcespace.base_url is required. Set RESOURCESPACE_URL or edit the config (create with 'archivist config init')")
	}
	if !strings.HasPrefix(c.ResourceSpace.BaseURL, "http://") && !strings.HasPrefix(c.ResourceSpace.BaseURL, "https://") {
		return fmt.Errorf("resourcespace.base_url must be an http(s) URL, got %q", c.ResourceSpace.BaseURL)
	}
	if c.ResourceSpace.User == "" {
		return errors.New("resourcespace.user is required. Set RESOURCESPACE_USER or edit the config")
	}
	if c.ResourceSpace.APIKey == "" {
		return errors.New("resourcespace.api_key is required. Set RESOURCESPACE_API_KEY or edit the config")
	}
	return nil
}

// ValidateArchive ensures upload credentials are present.
func (c *Config) ValidateArchive() error {
	if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
		return errors.New("archive.access_key and archive.secret_key are required. Set IA_ACCESS_KEY/IA_SECRET_KEY or edit the config")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if len(c.Archive.Collections) == 0 {
		return errors.New("archive.collections must list at least one collection")
	}
	if c.Archive.RightsStatement == "" {
		return errors.New("archive.rights_statement must be set")
	}
	return nil
}

func (c *Config) validateFields() error {
	seen := make(map[string]struct{}, len(c.Fields.Rules))
	for i, rule := range c.Fields.Rules {
		if rule.Name == "" {
			return fmt.Errorf("fields.rule[%d].name must be set", i)
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("fields.rule %q is defined more than once", rule.Name)
		}
		seen[rule.Name] = struct{}{}
		switch rule.Strategy {
		case "first", "concat":
		default:
			return fmt.Errorf("fields.rule %q: strategy must be \"first\" or \"concat\", got %q", rule.Name, rule.Strategy)
		}
		if len(rule.Columns) == 0 {
			return fmt.Errorf("fields.rule %q: columns must list at least one source column", rule.Name)
		}
	}
	return nil
}

func (c *Config) validateMedia() error {
	if !scalePattern.MatchString(c.Media.Scale) {
		return fmt.Errorf("media.scale must look like WIDTHxHEIGHT, got %q", c.Media.Scale)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Retries < 0 {
		return errors.New("batch.retries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
