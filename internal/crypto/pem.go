package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// PEM block types for RSA private keys.
const (
	PEMTypePKCS1 = "RSA PRIVATE KEY"
	PEMTypePKCS8 = "PRIVATE KEY"
)

// PEMFormat selects the PEM encoding of a private key.
type PEMFormat string

const (
	FormatPKCS1 PEMFormat = "pkcs1"
	FormatPKCS8 PEMFormat = "pkcs8"
)

var (
	// ErrEncryptedPEM indicates an encrypted PEM block was read without a passphrase.
	ErrEncryptedPEM = errors.New("private key is encrypted but no passphrase provided")

	// ErrNotRSA indicates the PEM block holds a non-RSA key.
	ErrNotRSA = errors.New("not an RSA private key")
)

// ParsePEMFormat parses "pkcs1" or "pkcs8".
func ParsePEMFormat(s string) (PEMFormat, error) {
	switch PEMFormat(s) {
	case FormatPKCS1, FormatPKCS8:
		return PEMFormat(s), nil
	}
	return "", fmt.Errorf("unknown PEM format: %s (supported: pkcs1, pkcs8)", s)
}

// ParsePrivateKeyPEM parses the first PEM block in data as an RSA private key.
// PKCS#1 and PKCS#8 blocks are accepted; legacy encrypted PEM blocks
// ("Proc-Type: 4,ENCRYPTED") are decrypted with passphrase.
func ParsePrivateKeyPEM(data, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	keyBytes := block.Bytes
	if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck
		if len(passphrase) == 0 {
			return nil, ErrEncryptedPEM
		}
		var err error
		keyBytes, err = x509.DecryptPEMBlock(block, passphrase) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}

	var priv *rsa.PrivateKey
	switch block.Type {
	case PEMTypePKCS1:
		k, err := x509.ParsePKCS1PrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA key: %w", err)
		}
		priv = k

	case PEMTypePKCS8:
		k, err := x509.ParsePKCS8PrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
		}
		rsaKey, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotRSA, k)
		}
		priv = rsaKey

	default:
		return nil, fmt.Errorf("unknown PEM type: %s", block.Type)
	}

	priv.Precompute()
	return priv, nil
}

// LoadPrivateKey loads an RSA private key from a PEM file.
func LoadPrivateKey(path string, passphrase []byte) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	priv, err := ParsePrivateKeyPEM(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return priv, nil
}

// MarshalPrivateKeyPEM encodes priv as PEM in the given format.
// If passphrase is provided, the block is encrypted with legacy PEM
// encryption (AES-256-CBC).
func MarshalPrivateKeyPEM(priv *rsa.PrivateKey, format PEMFormat, passphrase []byte) ([]byte, error) {
	var block *pem.Block

	switch format {
	case FormatPKCS1, "":
		block = &pem.Block{
			Type:  PEMTypePKCS1,
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		}
	case FormatPKCS8:
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal private key: %w", err)
		}
		block = &pem.Block{
			Type:  PEMTypePKCS8,
			Bytes: der,
		}
	default:
		return nil, fmt.Errorf("unknown PEM format: %s", format)
	}

	if len(passphrase) > 0 {
		var err error
		block, err = x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, passphrase, x509.PEMCipherAES256) //nolint:staticcheck // Deprecated but still used
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt private key: %w", err)
		}
	}

	return pem.EncodeToMemory(block), nil
}

// SavePrivateKey writes priv to path as PEM with mode 0600.
func SavePrivateKey(path string, priv *rsa.PrivateKey, format PEMFormat, passphrase []byte) error {
	data, err := MarshalPrivateKeyPEM(priv, format, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
