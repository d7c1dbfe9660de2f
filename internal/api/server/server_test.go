package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/remiblancher/ppkey/internal/config"
)

func TestU_FromSettings(t *testing.T) {
	c := config.Default()
	c.DefaultComment = "laptop"
	c.AuditLog = "/var/log/ppkey/audit.jsonl"
	c.Server.Host = "127.0.0.1"
	c.Server.Port = 9443
	c.Server.TLSCert = "server.crt"
	c.Server.TLSKey = "server.key"

	cfg := FromSettings(c)
	if cfg.Address() != "127.0.0.1:9443" {
		t.Errorf("Address() = %s, want 127.0.0.1:9443", cfg.Address())
	}
	if cfg.DefaultComment != "laptop" || cfg.AuditLog != c.AuditLog {
		t.Errorf("FromSettings() = %+v", cfg)
	}
	if !cfg.TLSEnabled() {
		t.Error("TLSEnabled() = false, want true")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 10s", cfg.ShutdownTimeout)
	}
}

func TestU_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8443 {
		t.Errorf("Port = %d, want 8443", cfg.Port)
	}
	if cfg.TLSEnabled() {
		t.Error("TLS should be disabled by default")
	}
}

func TestU_Server_Handler(t *testing.T) {
	srv := New(DefaultConfig(), "test")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestF_Server_RunShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	srv := New(cfg, "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
