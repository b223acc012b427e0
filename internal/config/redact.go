package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

const redactedValue = "********"

// Redacted returns a copy of the configuration with credentials masked. Empty
// credentials stay empty so an operator can tell unset from set.
func (c *Config) Redacted() Config {
	out := *c
	out.ResourceSpace.APIKey = redact(c.ResourceSpace.APIKey)
	out.Archive.AccessKey = redact(c.Archive.AccessKey)
	out.Archive.SecretKey = redact(c.Archive.SecretKey)
	out.Fetch.S3AccessKey = redact(c.Fetch.S3AccessKey)
	out.Fetch.S3SecretKey = redact(c.Fetch.S3SecretKey)
	out.Archive.Collections = append([]string(nil), c.Archive.Collections...)
	out.Mapping.MissingMarkers = append([]string(nil), c.Mapping.MissingMarkers...)
	out.Mapping.RequiredFields = append([]string(nil), c.Mapping.RequiredFields...)
	out.Fields.Rules = append([]FieldRule(nil), c.Fields.Rules...)
	return out
}

// EncodeTOML renders the redacted configuration in the config file format.
func (c *Config) EncodeTOML() ([]byte, error) {
	redacted := c.Redacted()
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(redacted); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return redactedValue
}
