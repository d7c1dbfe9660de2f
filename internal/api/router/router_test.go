package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remiblancher/ppkey/internal/api/dto"
	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/crypto"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

const (
	testPassphrase  = "asdf"
	testComment     = "imported-openssh-key"
	testFingerprint = "SHA256:1nWcwUaXTsBwgAmwTNL3taLWgwCp98UoUBAg4E1nVXU"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "pkg", "ppk", "testdata", name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return data
}

// newTestRouter returns a router. A non-empty auditLog enables the global
// audit writer for the duration of the test.
func newTestRouter(t *testing.T, auditLog string) http.Handler {
	t.Helper()
	if auditLog != "" {
		if err := audit.InitFile(auditLog); err != nil {
			t.Fatalf("InitFile() error = %v", err)
		}
		t.Cleanup(func() { _ = audit.Close() })
	}
	return New(&Config{Version: "test", AuditLog: auditLog})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, status, rec.Body.String())
	}
	var apiErr dto.APIError
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != code {
		t.Errorf("code = %s, want %s", apiErr.Code, code)
	}
}

// =============================================================================
// Health
// =============================================================================

func TestU_Health(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("unexpected health response: %+v", resp)
	}
	if resp.Audit != "disabled" {
		t.Errorf("Audit = %s, want disabled", resp.Audit)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestU_Ready(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp dto.ReadyResponse
	decodeBody(t, rec, &resp)
	if !resp.Ready {
		t.Error("Ready = false")
	}
}

func TestU_RequestID_Propagated(t *testing.T) {
	h := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want abc123", got)
	}
}

func TestU_OpenAPISpec(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodGet, "/api/openapi.yaml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/keys/import") {
		t.Error("OpenAPI document does not describe /api/v1/keys/import")
	}
}

// =============================================================================
// Keys
// =============================================================================

func TestF_Inspect(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name         string
		fixture      string
		passphrase   string
		wantVerified bool
		wantEnc      string
	}{
		{"[Unit] Inspect: clear key is verified", "clear.ppk", "", true, "none"},
		{"[Unit] Inspect: encrypted key without passphrase", "encrypted.ppk", "", false, "aes256-cbc"},
		{"[Unit] Inspect: encrypted key with passphrase", "encrypted.ppk", testPassphrase, true, "aes256-cbc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", dto.KeyInspectRequest{
				Key:        dto.TextData(readFixture(t, tt.fixture)),
				Passphrase: tt.passphrase,
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
			}

			var info dto.KeyInfo
			decodeBody(t, rec, &info)
			if info.Fingerprint != testFingerprint {
				t.Errorf("Fingerprint = %s, want %s", info.Fingerprint, testFingerprint)
			}
			if info.Comment != testComment {
				t.Errorf("Comment = %s, want %s", info.Comment, testComment)
			}
			if info.Encryption != tt.wantEnc {
				t.Errorf("Encryption = %s, want %s", info.Encryption, tt.wantEnc)
			}
			if info.Verified != tt.wantVerified {
				t.Errorf("Verified = %v, want %v", info.Verified, tt.wantVerified)
			}
			if info.Bits != 2048 {
				t.Errorf("Bits = %d, want 2048", info.Bits)
			}
			if !strings.HasPrefix(info.AuthorizedKey, "ssh-rsa ") {
				t.Errorf("AuthorizedKey = %q", info.AuthorizedKey)
			}
		})
	}
}

func TestF_Inspect_WrongPassphrase(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", dto.KeyInspectRequest{
		Key:        dto.TextData(readFixture(t, "encrypted.ppk")),
		Passphrase: "wrong",
	})
	expectError(t, rec, http.StatusUnauthorized, "DECRYPTION_FAILED")
}

func TestF_Export_PassphraseRequired(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/export", dto.KeyExportRequest{
		Key: dto.TextData(readFixture(t, "encrypted.ppk")),
	})
	expectError(t, rec, http.StatusUnauthorized, "PASSPHRASE_REQUIRED")
}

func TestF_Export_ReferenceKey(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/export", dto.KeyExportRequest{
		Key:        dto.TextData(readFixture(t, "encrypted.ppk")),
		Passphrase: testPassphrase,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp dto.KeyExportResponse
	decodeBody(t, rec, &resp)
	if resp.Format != "pkcs1" {
		t.Errorf("Format = %s, want pkcs1", resp.Format)
	}
	got, err := crypto.ParsePrivateKeyPEM([]byte(resp.PEM.Data), nil)
	if err != nil {
		t.Fatalf("ParsePrivateKeyPEM(exported) error = %v", err)
	}
	want, err := crypto.ParsePrivateKeyPEM(readFixture(t, "reference.pem"), nil)
	if err != nil {
		t.Fatalf("ParsePrivateKeyPEM(reference) error = %v", err)
	}
	if !got.Equal(want) {
		t.Error("exported key does not match reference.pem")
	}
}

func TestF_Import_ReproducesReference(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name       string
		passphrase string
		fixture    string
	}{
		{"[Unit] Import: unencrypted", "", "clear.ppk"},
		{"[Unit] Import: encrypted", testPassphrase, "encrypted.ppk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/import", dto.KeyImportRequest{
				Key:        dto.TextData(readFixture(t, "reference.pem")),
				Passphrase: tt.passphrase,
				Comment:    testComment,
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
			}

			var resp dto.KeyResponse
			decodeBody(t, rec, &resp)
			if resp.PPK.Data != string(readFixture(t, tt.fixture)) {
				t.Errorf("imported PPK differs from %s\ngot:\n%s", tt.fixture, resp.PPK.Data)
			}
			if resp.Info.Fingerprint != testFingerprint {
				t.Errorf("Fingerprint = %s, want %s", resp.Info.Fingerprint, testFingerprint)
			}
		})
	}
}

func TestF_Import_DefaultComment(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/import", dto.KeyImportRequest{
		Key: dto.TextData(readFixture(t, "reference.pem")),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	var resp dto.KeyResponse
	decodeBody(t, rec, &resp)
	if resp.Info.Comment != ppk.DefaultComment {
		t.Errorf("Comment = %s, want %s", resp.Info.Comment, ppk.DefaultComment)
	}
}

func TestF_Import_InvalidPEM(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/import", dto.KeyImportRequest{
		Key: dto.TextData([]byte("not a pem")),
	})
	expectError(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
}

func TestF_Convert_RemovesEncryption(t *testing.T) {
	h := newTestRouter(t, "")
	comment := "renamed"
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/convert", dto.KeyConvertRequest{
		Key:        dto.TextData(readFixture(t, "encrypted.ppk")),
		Passphrase: testPassphrase,
		Comment:    &comment,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp dto.KeyResponse
	decodeBody(t, rec, &resp)
	if resp.Info.Encryption != "none" {
		t.Errorf("Encryption = %s, want none", resp.Info.Encryption)
	}

	k, err := ppk.Parse([]byte(resp.PPK.Data), nil)
	if err != nil {
		t.Fatalf("Parse(converted) error = %v", err)
	}
	if k.Comment() != comment {
		t.Errorf("Comment = %s, want %s", k.Comment(), comment)
	}
	if fp, _ := k.Fingerprint(); fp != testFingerprint {
		t.Errorf("Fingerprint = %s, want %s", fp, testFingerprint)
	}
}

func TestF_Convert_KeepsComment(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/convert", dto.KeyConvertRequest{
		Key:           dto.TextData(readFixture(t, "clear.ppk")),
		NewPassphrase: "new secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp dto.KeyResponse
	decodeBody(t, rec, &resp)
	k, err := ppk.Parse([]byte(resp.PPK.Data), []byte("new secret"))
	if err != nil {
		t.Fatalf("Parse(converted) error = %v", err)
	}
	if k.Comment() != testComment {
		t.Errorf("Comment = %s, want %s", k.Comment(), testComment)
	}
	if k.Encryption() != ppk.EncryptionAES256CBC {
		t.Errorf("Encryption = %s, want aes256-cbc", k.Encryption())
	}
}

func TestF_Generate(t *testing.T) {
	if testing.Short() {
		t.Skip("RSA generation in short mode")
	}
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/generate", dto.KeyGenerateRequest{
		Passphrase: "pw",
		Comment:    "generated",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp dto.KeyResponse
	decodeBody(t, rec, &resp)
	if resp.Info.Bits != 2048 {
		t.Errorf("Bits = %d, want 2048", resp.Info.Bits)
	}
	if _, err := ppk.Parse([]byte(resp.PPK.Data), []byte("pw")); err != nil {
		t.Errorf("Parse(generated) error = %v", err)
	}
}

func TestF_Generate_UnknownAlgorithm(t *testing.T) {
	h := newTestRouter(t, "")
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/generate", dto.KeyGenerateRequest{
		Algorithm: "rsa-1024",
	})
	expectError(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
}

func TestU_KeyRequest_Errors(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"[Unit] Request: invalid JSON", "{", http.StatusBadRequest, "INVALID_REQUEST"},
		{"[Unit] Request: unknown field", `{"key":{"data":"x"},"bogus":1}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"[Unit] Request: missing key", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"[Unit] Request: bad encoding", `{"key":{"data":"x","encoding":"hex"}}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"[Unit] Request: malformed PPK", `{"key":{"data":"PuTTY-User-Key-File-2: ssh-rsa\n"}}`, http.StatusBadRequest, "INVALID_PPK"},
		{"[Unit] Request: unsupported version", `{"key":{"data":"PuTTY-User-Key-File-3: ssh-rsa\n"}}`, http.StatusUnprocessableEntity, "UNSUPPORTED_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", tt.body)
			expectError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestU_KeyRequest_TooLarge(t *testing.T) {
	h := newTestRouter(t, "")
	body := `{"key":{"data":"` + strings.Repeat("A", 2<<20) + `"}}`
	rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", body)
	expectError(t, rec, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE")
}

// =============================================================================
// Audit
// =============================================================================

func TestU_Audit_NotConfigured(t *testing.T) {
	h := newTestRouter(t, "")
	expectError(t, doRequest(t, h, http.MethodGet, "/api/v1/audit/logs", nil), http.StatusNotFound, "AUDIT_NOT_CONFIGURED")
	expectError(t, doRequest(t, h, http.MethodPost, "/api/v1/audit/verify", nil), http.StatusNotFound, "AUDIT_NOT_CONFIGURED")
}

func TestF_Audit_RecordsOperations(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	h := newTestRouter(t, logPath)

	if rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", dto.KeyInspectRequest{
		Key: dto.TextData(readFixture(t, "clear.ppk")),
	}); rec.Code != http.StatusOK {
		t.Fatalf("inspect status = %d", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodPost, "/api/v1/keys/export", dto.KeyExportRequest{
		Key:        dto.TextData(readFixture(t, "encrypted.ppk")),
		Passphrase: "wrong",
	}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("export status = %d, want 401", rec.Code)
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/audit/logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	var logs dto.AuditLogsResponse
	decodeBody(t, rec, &logs)
	if len(logs.Logs) != 2 {
		t.Fatalf("len(Logs) = %d, want 2", len(logs.Logs))
	}
	if logs.Logs[0].Operation != string(audit.EventKeyInspected) || !logs.Logs[0].Success {
		t.Errorf("first entry = %+v", logs.Logs[0])
	}
	if logs.Logs[1].Operation != string(audit.EventAuthFailed) || logs.Logs[1].Success {
		t.Errorf("second entry = %+v", logs.Logs[1])
	}
	if logs.Logs[0].Actor != "service:ppkey-api" {
		t.Errorf("Actor = %s, want service:ppkey-api", logs.Logs[0].Actor)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/audit/logs?limit=1", nil)
	decodeBody(t, rec, &logs)
	if len(logs.Logs) != 1 || logs.Logs[0].Operation != string(audit.EventAuthFailed) {
		t.Errorf("limit=1 returned %+v", logs.Logs)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/v1/audit/verify", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	var verify dto.AuditVerifyResponse
	decodeBody(t, rec, &verify)
	if !verify.Valid || verify.EntryCount != 2 {
		t.Errorf("verify = %+v, want valid with 2 entries", verify)
	}
}

func TestU_Audit_InvalidLimit(t *testing.T) {
	h := newTestRouter(t, filepath.Join(t.TempDir(), "audit.jsonl"))
	rec := doRequest(t, h, http.MethodGet, "/api/v1/audit/logs?limit=zero", nil)
	expectError(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
}

func TestF_Audit_TamperedChain(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	h := newTestRouter(t, logPath)

	for i := 0; i < 2; i++ {
		doRequest(t, h, http.MethodPost, "/api/v1/keys/inspect", dto.KeyInspectRequest{
			Key: dto.TextData(readFixture(t, "clear.ppk")),
		})
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "KEY_INSPECTED", "KEY_EXPORTED", 1)
	if err := os.WriteFile(logPath, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, h, http.MethodPost, "/api/v1/audit/verify", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var verify dto.AuditVerifyResponse
	decodeBody(t, rec, &verify)
	if verify.Valid || len(verify.Errors) == 0 {
		t.Errorf("verify = %+v, want invalid", verify)
	}
}
