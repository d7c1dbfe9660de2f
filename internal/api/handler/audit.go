package handler

import (
	"net/http"
	"strconv"

	apierrors "github.com/remiblancher/ppkey/internal/api/errors"
	"github.com/remiblancher/ppkey/internal/api/service"
)

// DefaultAuditLimit is the number of entries returned by the logs endpoint
// when no limit is given.
const DefaultAuditLimit = 100

// AuditHandler handles audit-related HTTP requests.
type AuditHandler struct {
	service *service.PPKService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(ppkService *service.PPKService) *AuditHandler {
	return &AuditHandler{service: ppkService}
}

// Logs handles GET /api/v1/audit/logs
func (h *AuditHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := DefaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	resp, err := h.service.AuditLogs(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Verify handles POST /api/v1/audit/verify
func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.AuditVerify(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusConflict
	}
	respondJSON(w, status, resp)
}
