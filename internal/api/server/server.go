package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiblancher/ppkey/internal/api/router"
)

// Server represents the HTTP server.
type Server struct {
	cfg     *Config
	version string
	srv     *http.Server
}

// New creates a new Server.
func New(cfg *Config, version string) *Server {
	routerCfg := &router.Config{
		Version:        version,
		DefaultComment: cfg.DefaultComment,
		AuditLog:       cfg.AuditLog,
	}

	return &Server{
		cfg:     cfg,
		version: version,
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      router.New(routerCfg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start starts the HTTP server and blocks until it fails or a shutdown
// signal is received.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	s.printStartupInfo()

	go func() {
		if s.cfg.TLSEnabled() {
			errChan <- s.srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Printf("Shutting down...")
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}

// printStartupInfo prints server startup information.
func (s *Server) printStartupInfo() {
	scheme := "http"
	if s.cfg.TLSEnabled() {
		scheme = "https"
	}

	fmt.Println()
	fmt.Println("ppkey API Server")
	fmt.Println("================")
	fmt.Printf("  Version:  %s\n", s.version)
	fmt.Printf("  Address:  %s://%s\n", scheme, s.cfg.Address())
	if s.cfg.AuditLog != "" {
		fmt.Printf("  Audit:    %s\n", s.cfg.AuditLog)
	} else {
		fmt.Println("  Audit:    disabled")
	}
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                 - Health check")
	fmt.Println("  GET  /ready                  - Readiness check")
	fmt.Println("  GET  /api/openapi.yaml       - OpenAPI specification")
	fmt.Println("  POST /api/v1/keys/inspect    - Describe a PPK key")
	fmt.Println("  POST /api/v1/keys/import     - PEM to PPK")
	fmt.Println("  POST /api/v1/keys/export     - PPK to PEM")
	fmt.Println("  POST /api/v1/keys/convert    - Re-encrypt a PPK key")
	fmt.Println("  POST /api/v1/keys/generate   - Generate an RSA key")
	fmt.Println("  GET  /api/v1/audit/logs      - Audit entries")
	fmt.Println("  POST /api/v1/audit/verify    - Verify audit chain")
	fmt.Println()
	fmt.Println("Use Ctrl+C to stop")
	fmt.Println()
}
