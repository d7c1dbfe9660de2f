// Package router provides HTTP routing configuration using Chi.
package router

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/remiblancher/ppkey/internal/api/handler"
	"github.com/remiblancher/ppkey/internal/api/middleware"
	"github.com/remiblancher/ppkey/internal/api/service"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Config holds router configuration.
type Config struct {
	Version        string
	DefaultComment string
	AuditLog       string // Audit log served by the /audit endpoints; empty disables them
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS)

	// Health endpoints
	healthHandler := handler.NewHealthHandler(cfg.Version)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// OpenAPI document
	r.Get("/api/openapi.yaml", serveOpenAPISpec)

	ppkService := service.NewPPKService(cfg.DefaultComment, cfg.AuditLog)
	keyHandler := handler.NewKeyHandler(ppkService)
	auditHandler := handler.NewAuditHandler(ppkService)

	r.Route("/api/v1", func(r chi.Router) {
		// Key operations
		r.Route("/keys", func(r chi.Router) {
			r.Post("/inspect", keyHandler.Inspect)
			r.Post("/import", keyHandler.Import)
			r.Post("/export", keyHandler.Export)
			r.Post("/convert", keyHandler.Convert)
			r.Post("/generate", keyHandler.Generate)
		})

		// Audit operations
		r.Route("/audit", func(r chi.Router) {
			r.Get("/logs", auditHandler.Logs)
			r.Post("/verify", auditHandler.Verify)
		})
	})

	return r
}

// serveOpenAPISpec serves the OpenAPI specification file.
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}
