// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/remiblancher/ppkey/internal/api/dto"
	"github.com/remiblancher/ppkey/internal/crypto"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

// Error codes for API responses.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodePassphraseRequired = "PASSPHRASE_REQUIRED"
	CodeDecryptionFailed   = "DECRYPTION_FAILED"
	CodeInvalidPPK         = "INVALID_PPK"
	CodeUnsupportedKey     = "UNSUPPORTED_KEY"
	CodeKeyMismatch        = "KEY_MISMATCH"
	CodeAuditFailed        = "AUDIT_FAILED"
	CodeAuditNotConfigured = "AUDIT_NOT_CONFIGURED"
	CodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	CodeInternal           = "INTERNAL_ERROR"
)

var (
	// ErrInvalidRequest marks request validation failures raised by services.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAuditNotConfigured indicates an audit endpoint was called without an audit log.
	ErrAuditNotConfigured = errors.New("audit log is not configured")

	// ErrAuditFailed marks failures to record an audit event.
	ErrAuditFailed = errors.New("audit log failed")
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	status, code := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, ErrAuditNotConfigured):
		status, code = http.StatusNotFound, CodeAuditNotConfigured
	case errors.Is(err, ErrAuditFailed):
		status, code = http.StatusInternalServerError, CodeAuditFailed

	case errors.Is(err, ppk.ErrPassphraseRequired), errors.Is(err, crypto.ErrEncryptedPEM):
		status, code = http.StatusUnauthorized, CodePassphraseRequired
	case errors.Is(err, ppk.ErrDecryptionFailed):
		status, code = http.StatusUnauthorized, CodeDecryptionFailed

	case errors.Is(err, ppk.ErrUnsupportedVersion),
		errors.Is(err, ppk.ErrUnsupportedAlgorithm),
		errors.Is(err, ppk.ErrUnsupportedEncryption),
		errors.Is(err, crypto.ErrNotRSA):
		status, code = http.StatusUnprocessableEntity, CodeUnsupportedKey

	case errors.Is(err, ppk.ErrInconsistentKey):
		status, code = http.StatusUnprocessableEntity, CodeKeyMismatch

	case errors.Is(err, ppk.ErrMalformedHeader),
		errors.Is(err, ppk.ErrTruncatedBuffer),
		errors.Is(err, ppk.ErrInvalidEncoding),
		errors.Is(err, ppk.ErrInvalidCiphertextLength),
		errors.Is(err, ppk.ErrFieldTooLarge):
		status, code = http.StatusBadRequest, CodeInvalidPPK

	case errors.Is(err, ErrInvalidRequest):
		status, code = http.StatusBadRequest, CodeInvalidRequest
	}

	if code != "" {
		apiErr := &dto.APIError{Code: code, Message: err.Error()}
		var fe *ppk.FormatError
		if errors.As(err, &fe) {
			apiErr.Details = map[string]string{"operation": fe.Op}
			if fe.Field != "" {
				apiErr.Details["field"] = fe.Field
			}
		}
		return status, apiErr
	}

	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(resource, id string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Details: map[string]string{"id": id},
	}
}
