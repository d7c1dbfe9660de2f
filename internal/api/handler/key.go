package handler

import (
	"net/http"

	"github.com/remiblancher/ppkey/internal/api/dto"
	"github.com/remiblancher/ppkey/internal/api/service"
)

// KeyHandler handles key-related HTTP requests.
type KeyHandler struct {
	service *service.PPKService
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(ppkService *service.PPKService) *KeyHandler {
	return &KeyHandler{service: ppkService}
}

// Inspect handles POST /api/v1/keys/inspect
func (h *KeyHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyInspectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Inspect(service.WithRemoteAddr(r.Context(), r.RemoteAddr), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Import handles POST /api/v1/keys/import
func (h *KeyHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Import(service.WithRemoteAddr(r.Context(), r.RemoteAddr), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Export handles POST /api/v1/keys/export
func (h *KeyHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Export(service.WithRemoteAddr(r.Context(), r.RemoteAddr), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Convert handles POST /api/v1/keys/convert
func (h *KeyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyConvertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Convert(service.WithRemoteAddr(r.Context(), r.RemoteAddr), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Generate handles POST /api/v1/keys/generate
func (h *KeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyGenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Generate(service.WithRemoteAddr(r.Context(), r.RemoteAddr), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}
