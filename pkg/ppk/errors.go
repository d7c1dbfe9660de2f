package ppk

import (
	"errors"
	"fmt"
)

// FormatError represents a PPK codec error with structured context.
// It supports errors.Is() and errors.As() through Unwrap.
type FormatError struct {
	Op    string // Operation: "decode", "unlock", "marshal", "unpack", "import"
	Field string // Header or blob field involved (if applicable)
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ppk %s [%s]: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("ppk %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FormatError) Unwrap() error { return e.Err }

func newFormatError(op, field string, err error) *FormatError {
	return &FormatError{Op: op, Field: field, Err: err}
}

// Sentinel errors for PPK operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrPassphraseRequired indicates an encrypted record was unlocked without a passphrase.
	ErrPassphraseRequired = errors.New("passphrase required")

	// ErrDecryptionFailed indicates the MAC did not match after decryption.
	// A wrong passphrase and a corrupted file are indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed: MAC mismatch")

	// ErrMalformedHeader indicates an unparseable, missing or out-of-order header line.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrTruncatedBuffer indicates a declared field length exceeds the available bytes.
	ErrTruncatedBuffer = errors.New("truncated buffer")

	// ErrFieldTooLarge indicates a field does not fit a 32-bit length prefix.
	ErrFieldTooLarge = errors.New("field too large")

	// ErrInvalidCiphertextLength indicates the ciphertext is not a multiple of the block size.
	ErrInvalidCiphertextLength = errors.New("ciphertext is not a multiple of the block size")

	// ErrUnsupportedVersion indicates a PuTTY key file version other than 2.
	ErrUnsupportedVersion = errors.New("unsupported PuTTY key file version")

	// ErrUnsupportedAlgorithm indicates a key type other than ssh-rsa.
	ErrUnsupportedAlgorithm = errors.New("unsupported key algorithm")

	// ErrUnsupportedEncryption indicates an encryption name other than none or aes256-cbc.
	ErrUnsupportedEncryption = errors.New("unsupported encryption")

	// ErrInvalidEncoding indicates bad base64 or hex content.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrInconsistentKey indicates RSA components that do not belong together.
	ErrInconsistentKey = errors.New("inconsistent RSA key components")

	// ErrKeyLocked indicates private components were requested before Unlock.
	ErrKeyLocked = errors.New("private key is locked")
)
