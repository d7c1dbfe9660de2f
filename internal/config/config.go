// Package config loads the ppkey YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "PPKEY_CONFIG"

// Config represents the YAML configuration.
type Config struct {
	// DefaultComment is the comment given to imported and generated keys.
	DefaultComment string `yaml:"default_comment"`

	// PassphraseEnv is the name of the environment variable containing
	// the key passphrase. Passphrases are never stored in the file.
	PassphraseEnv string `yaml:"passphrase_env"`

	// AuditLog is the path of the JSONL audit log. Empty disables auditing.
	AuditLog string `yaml:"audit_log"`

	Server ServerSettings `yaml:"server"`
}

// ServerSettings holds the REST API server configuration.
type ServerSettings struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		DefaultComment: "rsa-key",
		Server: ServerSettings{
			Port:            8443,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from a YAML file. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to $PPKEY_CONFIG and then to the
// defaults when neither is set.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.DefaultComment, "\r\n") {
		return fmt.Errorf("default_comment must be a single line")
	}
	if strings.ContainsAny(c.PassphraseEnv, "= \t") {
		return fmt.Errorf("passphrase_env is not a valid environment variable name: %q", c.PassphraseEnv)
	}

	s := c.Server
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", s.Port)
	}
	if (s.TLSCert == "") != (s.TLSKey == "") {
		return fmt.Errorf("server.tls_cert and server.tls_key must be set together")
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     s.ReadTimeout,
		"write_timeout":    s.WriteTimeout,
		"idle_timeout":     s.IdleTimeout,
		"shutdown_timeout": s.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must not be negative", name)
		}
	}
	return nil
}

// Passphrase retrieves the passphrase from the configured environment
// variable. It returns nil when no variable is configured or it is empty.
func (c *Config) Passphrase() []byte {
	if c.PassphraseEnv == "" {
		return nil
	}
	if v := os.Getenv(c.PassphraseEnv); v != "" {
		return []byte(v)
	}
	return nil
}
