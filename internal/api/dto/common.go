// Package dto provides Data Transfer Objects for the REST API.
package dto

import (
	"encoding/base64"
	"fmt"
)

// BinaryData represents key material with encoding metadata.
type BinaryData struct {
	// Data is the encoded content: PPK or PEM text, or base64.
	Data string `json:"data"`

	// Encoding is "text" (default, also accepted as "pem") or "base64".
	Encoding string `json:"encoding,omitempty"`
}

// TextData wraps text content for a response.
func TextData(b []byte) BinaryData {
	return BinaryData{Data: string(b), Encoding: "text"}
}

// Decode decodes the binary data based on its encoding.
func (b *BinaryData) Decode() ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("binary data is nil")
	}
	switch b.Encoding {
	case "text", "pem", "":
		return []byte(b.Data), nil
	case "base64":
		return base64.StdEncoding.DecodeString(b.Data)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", b.Encoding)
	}
}

// APIError represents a standardized error response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details provides additional context about the error.
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	// Audit is "enabled" or "disabled".
	Audit string `json:"audit"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready  bool            `json:"ready"`
	Checks map[string]bool `json:"checks,omitempty"`
}
