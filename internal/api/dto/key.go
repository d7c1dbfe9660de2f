package dto

// KeyInfo describes a PPK key record. Private material is never included.
type KeyInfo struct {
	Algorithm     string `json:"algorithm"`
	Bits          int    `json:"bits"`
	Comment       string `json:"comment"`
	Encryption    string `json:"encryption"`
	Fingerprint   string `json:"fingerprint"`
	AuthorizedKey string `json:"authorized_key"`

	// Verified is true when the MAC was checked with the given passphrase.
	Verified bool `json:"verified"`
}

// KeyInspectRequest inspects a PPK file.
type KeyInspectRequest struct {
	// Key is the PPK file content.
	Key BinaryData `json:"key"`

	// Passphrase, when given, is used to verify the MAC of an encrypted key.
	Passphrase string `json:"passphrase,omitempty"`
}

// KeyImportRequest converts a PEM RSA private key to PPK.
type KeyImportRequest struct {
	// Key is the PEM private key (PKCS#1 or PKCS#8).
	Key BinaryData `json:"key"`

	// PEMPassphrase decrypts a legacy encrypted PEM block.
	PEMPassphrase string `json:"pem_passphrase,omitempty"`

	// Passphrase encrypts the resulting PPK. Empty writes an unencrypted file.
	Passphrase string `json:"passphrase,omitempty"`

	// Comment overrides the default comment.
	Comment string `json:"comment,omitempty"`
}

// KeyExportRequest converts a PPK key to PEM.
type KeyExportRequest struct {
	Key        BinaryData `json:"key"`
	Passphrase string     `json:"passphrase,omitempty"`

	// Format is "pkcs1" (default) or "pkcs8".
	Format string `json:"format,omitempty"`

	// PEMPassphrase encrypts the PEM output.
	PEMPassphrase string `json:"pem_passphrase,omitempty"`
}

// KeyConvertRequest re-encrypts a PPK key or changes its comment.
type KeyConvertRequest struct {
	Key           BinaryData `json:"key"`
	Passphrase    string     `json:"passphrase,omitempty"`
	NewPassphrase string     `json:"new_passphrase,omitempty"`

	// Comment replaces the comment when non-nil.
	Comment *string `json:"comment,omitempty"`
}

// KeyGenerateRequest generates a new RSA key as PPK.
type KeyGenerateRequest struct {
	// Algorithm is rsa-2048 (default), rsa-3072 or rsa-4096.
	Algorithm  string `json:"algorithm,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// KeyResponse carries a PPK file and its description.
type KeyResponse struct {
	PPK  BinaryData `json:"ppk"`
	Info KeyInfo    `json:"info"`
}

// KeyExportResponse carries a PEM private key.
type KeyExportResponse struct {
	PEM    BinaryData `json:"pem"`
	Format string     `json:"format"`
	Info   KeyInfo    `json:"info"`
}
