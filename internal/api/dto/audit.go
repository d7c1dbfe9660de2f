package dto

// AuditLogsResponse represents audit log entries.
type AuditLogsResponse struct {
	Logs []AuditEntry `json:"logs"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	Timestamp   string `json:"timestamp"`
	Operation   string `json:"operation"`
	Actor       string `json:"actor"`
	Path        string `json:"path,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Success     bool   `json:"success"`
	Reason      string `json:"reason,omitempty"`
	Hash        string `json:"hash"`
}

// AuditVerifyResponse represents audit verification result.
type AuditVerifyResponse struct {
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors,omitempty"`
	EntryCount int      `json:"entry_count"`
}
