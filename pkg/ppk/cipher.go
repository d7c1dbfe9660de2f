package ppk

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"fmt"
)

// cipherKeyLength is the AES-256 key size.
const cipherKeyLength = 32

// Encryption names the cipher protecting the private blob.
type Encryption string

const (
	EncryptionNone      Encryption = "none"
	EncryptionAES256CBC Encryption = "aes256-cbc"
)

// ParseEncryption parses the value of an Encryption header.
func ParseEncryption(s string) (Encryption, error) {
	switch e := Encryption(s); e {
	case EncryptionNone, EncryptionAES256CBC:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncryption, s)
	}
}

// String returns the header form of the encryption name.
func (e Encryption) String() string {
	return string(e)
}

// IsEncrypted reports whether the private blob is cipher-protected.
func (e Encryption) IsEncrypted() bool {
	return e != EncryptionNone
}

// deriveCipherKey computes SHA1(00000000 || passphrase) || SHA1(00000001 || passphrase)
// truncated to 32 bytes. No salt, no iterations.
func deriveCipherKey(passphrase []byte) []byte {
	var key []byte
	for seq := byte(0); len(key) < cipherKeyLength; seq++ {
		h := sha1.New()
		h.Write([]byte{0, 0, 0, seq})
		h.Write(passphrase)
		key = h.Sum(key)
	}
	return key[:cipherKeyLength]
}

// padPrivateBlob extends blob to the next multiple of the AES block size
// with the leading bytes of SHA1(blob).
func padPrivateBlob(blob []byte) []byte {
	missing := (aes.BlockSize - len(blob)%aes.BlockSize) % aes.BlockSize
	out := make([]byte, len(blob), len(blob)+missing)
	copy(out, blob)
	if missing == 0 {
		return out
	}
	digest := sha1.Sum(blob)
	return append(out, digest[:missing]...)
}

// encryptPrivateBlob pads and encrypts the plaintext private blob with
// AES-256-CBC under a zero IV. It returns the ciphertext and the padded
// plaintext, which is what the MAC covers.
func encryptPrivateBlob(passphrase, blob []byte) (ciphertext, padded []byte, err error) {
	block, err := aes.NewCipher(deriveCipherKey(passphrase))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	padded = padPrivateBlob(blob)
	ciphertext = make([]byte, len(padded))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, padded, nil
}

// decryptPrivateBlob reverses encryptPrivateBlob. Padding is kept.
func decryptPrivateBlob(passphrase, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCiphertextLength, len(ciphertext))
	}

	block, err := aes.NewCipher(deriveCipherKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}
