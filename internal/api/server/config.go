// Package server provides HTTP server configuration and lifecycle management.
package server

import (
	"fmt"
	"time"

	"github.com/remiblancher/ppkey/internal/config"
)

// Config holds the server configuration.
type Config struct {
	// Port is the HTTP port.
	Port int

	// Host is the address to bind to (default: "").
	Host string

	// DefaultComment is applied to imported and generated keys.
	DefaultComment string

	// AuditLog is the audit log path served by the audit endpoints.
	AuditLog string

	// TLS configuration (optional)
	TLSCert string
	TLSKey  string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return FromSettings(config.Default())
}

// FromSettings builds a server Config from the loaded configuration file.
func FromSettings(c *config.Config) *Config {
	s := c.Server
	return &Config{
		Port:            s.Port,
		Host:            s.Host,
		DefaultComment:  c.DefaultComment,
		AuditLog:        c.AuditLog,
		TLSCert:         s.TLSCert,
		TLSKey:          s.TLSKey,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		IdleTimeout:     s.IdleTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
	}
}

// Address returns the full listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TLSEnabled reports whether both TLS files are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
