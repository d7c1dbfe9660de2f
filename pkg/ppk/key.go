// Package ppk reads and writes PuTTY private key files (format version 2)
// holding RSA keys.
//
// A file is decoded in two steps: Decode parses the text container and the
// public blob, and Unlock decrypts the private blob and verifies the MAC.
// Parse does both. Marshal produces the text container, encrypting the
// private blob with AES-256-CBC when a passphrase is given.
//
// A Key is not safe for concurrent mutation. Independent keys may be used
// from different goroutines.
package ppk

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// AlgorithmRSA is the only key type handled by this package.
	AlgorithmRSA = "ssh-rsa"

	// DefaultComment is used for keys imported from RSA components.
	DefaultComment = "rsa-key"

	publicBlobFields  = 3 // algorithm, e, n
	privateBlobFields = 4 // d, p, q, iqmp
)

// Key is a PuTTY key record.
type Key struct {
	algorithm  string
	comment    string
	encryption Encryption

	// mpint-encoded components
	exponent        []byte
	modulus         []byte
	privateExponent []byte
	primeP          []byte
	primeQ          []byte
	iqmp            []byte

	// derived blobs, memoized; see invalidate
	publicBlob  []byte
	privateBlob []byte // plaintext, including any cipher padding read from disk

	privateBlobEncrypted []byte // on-disk form, set by Decode
	mac                  []byte // stored tag, set by Decode
	locked               bool
}

// Decode parses a PPK container and its public blob. The returned key is
// locked: private components become available after Unlock.
func Decode(data []byte) (*Key, error) {
	c, err := decodeContainer(data)
	if err != nil {
		return nil, err
	}

	fields, err := UnpackFields(c.publicBlob, publicBlobFields)
	if err != nil {
		return nil, newFormatError("decode", "Public-Lines", err)
	}
	if string(fields[0]) != c.algorithm {
		return nil, newFormatError("decode", "Public-Lines",
			fmt.Errorf("%w: public blob algorithm %q does not match header %q", ErrMalformedHeader, fields[0], c.algorithm))
	}

	return &Key{
		algorithm:            c.algorithm,
		comment:              c.comment,
		encryption:           c.encryption,
		exponent:             bytes.Clone(fields[1]),
		modulus:              bytes.Clone(fields[2]),
		publicBlob:           c.publicBlob,
		privateBlobEncrypted: c.privateBlob,
		mac:                  c.mac,
		locked:               true,
	}, nil
}

// Parse decodes a PPK container and unlocks it with passphrase.
// A nil or empty passphrase is only accepted for unencrypted files.
func Parse(data, passphrase []byte) (*Key, error) {
	k, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := k.Unlock(passphrase); err != nil {
		return nil, err
	}
	return k, nil
}

// Unlock decrypts the private blob if needed, verifies the stored MAC and
// unpacks the private components. On failure the key stays locked.
// Unencrypted keys are verified with the empty passphrase; any passphrase
// given for them is ignored.
func (k *Key) Unlock(passphrase []byte) error {
	if !k.locked {
		return nil
	}

	plaintext := k.privateBlobEncrypted
	if k.encryption.IsEncrypted() {
		if len(passphrase) == 0 {
			return newFormatError("unlock", "", ErrPassphraseRequired)
		}
		var err error
		plaintext, err = decryptPrivateBlob(passphrase, k.privateBlobEncrypted)
		if err != nil {
			return newFormatError("unlock", "Private-Lines", err)
		}
	} else {
		passphrase = nil
	}

	blob, err := macBlob(k.algorithm, k.encryption, k.comment, k.publicBlob, plaintext)
	if err != nil {
		return newFormatError("unlock", "", err)
	}
	if !verifyMAC(passphrase, blob, k.mac) {
		return newFormatError("unlock", "Private-MAC", ErrDecryptionFailed)
	}

	fields, err := UnpackFields(plaintext, privateBlobFields)
	if err != nil {
		return newFormatError("unlock", "Private-Lines", err)
	}

	k.privateExponent = bytes.Clone(fields[0])
	k.primeP = bytes.Clone(fields[1])
	k.primeQ = bytes.Clone(fields[2])
	k.iqmp = bytes.Clone(fields[3])
	k.privateBlob = plaintext
	k.locked = false
	return nil
}

// Locked reports whether the private components are still unavailable.
func (k *Key) Locked() bool {
	return k.locked
}

// Algorithm returns the key type, always "ssh-rsa".
func (k *Key) Algorithm() string {
	return k.algorithm
}

// Comment returns the key comment.
func (k *Key) Comment() string {
	return k.comment
}

// SetComment replaces the comment. The comment is covered by the MAC, so
// it cannot be changed on a locked key.
func (k *Key) SetComment(comment string) error {
	if k.locked {
		return newFormatError("comment", "", ErrKeyLocked)
	}
	if strings.ContainsAny(comment, "\r\n") {
		return newFormatError("comment", "Comment", fmt.Errorf("%w: comment contains a line break", ErrMalformedHeader))
	}
	k.comment = comment
	k.mac = nil
	return nil
}

// Encryption returns the encryption the key was read with. Keys built from
// RSA components report EncryptionNone.
func (k *Key) Encryption() Encryption {
	return k.encryption
}

// MAC returns the integrity tag read from the file, or nil for keys that
// were not decoded or whose comment has changed since.
func (k *Key) MAC() []byte {
	return bytes.Clone(k.mac)
}

// Bits returns the modulus size in bits.
func (k *Key) Bits() int {
	return DecodeMPInt(k.modulus).BitLen()
}

// PublicBlob returns the public blob: algorithm, e and n packed.
func (k *Key) PublicBlob() ([]byte, error) {
	b, err := k.publicBlobBytes()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// Marshal serializes the key as a PPK container. With a non-empty
// passphrase the private blob is encrypted with aes256-cbc; otherwise the
// file is written with "Encryption: none". The key itself is not modified.
func (k *Key) Marshal(passphrase []byte) ([]byte, error) {
	if k.locked {
		return nil, newFormatError("marshal", "", ErrKeyLocked)
	}

	pub, err := k.publicBlobBytes()
	if err != nil {
		return nil, newFormatError("marshal", "Public-Lines", err)
	}
	priv, err := k.privateBlobBytes()
	if err != nil {
		return nil, newFormatError("marshal", "Private-Lines", err)
	}

	c := &container{
		algorithm:   k.algorithm,
		encryption:  EncryptionNone,
		comment:     k.comment,
		publicBlob:  pub,
		privateBlob: priv,
	}

	plaintext := priv
	if len(passphrase) > 0 {
		c.encryption = EncryptionAES256CBC
		c.privateBlob, plaintext, err = encryptPrivateBlob(passphrase, priv)
		if err != nil {
			return nil, newFormatError("marshal", "Private-Lines", err)
		}
	}

	blob, err := macBlob(c.algorithm, c.encryption, c.comment, pub, plaintext)
	if err != nil {
		return nil, newFormatError("marshal", "", err)
	}
	c.mac = computeMAC(passphrase, blob)

	return c.encode(), nil
}

func (k *Key) publicBlobBytes() ([]byte, error) {
	if k.publicBlob == nil {
		b, err := PackFields([]byte(k.algorithm), k.exponent, k.modulus)
		if err != nil {
			return nil, err
		}
		k.publicBlob = b
	}
	return k.publicBlob, nil
}

func (k *Key) privateBlobBytes() ([]byte, error) {
	if k.privateBlob == nil {
		b, err := PackFields(k.privateExponent, k.primeP, k.primeQ, k.iqmp)
		if err != nil {
			return nil, err
		}
		k.privateBlob = b
	}
	return k.privateBlob, nil
}

// invalidate drops the memoized blobs after a component changes.
func (k *Key) invalidate() {
	k.publicBlob = nil
	k.privateBlob = nil
	k.mac = nil
}
