// Package config provides flag/environment/YAML layered configuration
// for the gmailsend CLI. Precedence, lowest to highest: built-in
// defaults, YAML file, GMAILSEND_* environment variables, CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Account         string `yaml:"account"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	LogLevel        string `yaml:"log_level"`
	Trace           bool   `yaml:"trace"`
}

// Load returns the configuration built from defaults and environment
// variables.
func Load() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// file cannot be read or parsed.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnvVars()
	return cfg, nil
}

// Validate checks that the fields every command depends on are set.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials file path is required")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file path is required")
	}
	return nil
}

// applyDefaults sets the documented default values.
func (c *Config) applyDefaults() {
	c.CredentialsFile = ExpandHome("~/.gmail/gmail_credentials.json")
	c.TokenFile = ExpandHome("~/.gmail/gmail_token.json")
	c.LogLevel = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("GMAILSEND_ACCOUNT"); v != "" {
		c.Account = v
	}
	if v := os.Getenv("GMAILSEND_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = ExpandHome(v)
	}
	if v := os.Getenv("GMAILSEND_TOKEN_FILE"); v != "" {
		c.TokenFile = ExpandHome(v)
	}
	if v := os.Getenv("GMAILSEND_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// ExpandHome replaces a leading "~" with the current user's home
// directory. Paths without the prefix are returned unchanged.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
