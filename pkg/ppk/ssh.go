package ppk

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// SSHPublicKey parses the public blob as an SSH wire-format public key.
// It is available on locked keys.
func (k *Key) SSHPublicKey() (ssh.PublicKey, error) {
	blob, err := k.publicBlobBytes()
	if err != nil {
		return nil, err
	}
	pub, err := ssh.ParsePublicKey(blob)
	if err != nil {
		return nil, newFormatError("ssh", "Public-Lines", fmt.Errorf("%w: %v", ErrMalformedHeader, err))
	}
	return pub, nil
}

// AuthorizedKey returns the key as an OpenSSH authorized_keys line,
// followed by the comment when there is one.
func (k *Key) AuthorizedKey() ([]byte, error) {
	pub, err := k.SSHPublicKey()
	if err != nil {
		return nil, err
	}
	line := bytes.TrimSuffix(ssh.MarshalAuthorizedKey(pub), []byte("\n"))
	if k.comment != "" {
		line = append(line, ' ')
		line = append(line, k.comment...)
	}
	return append(line, '\n'), nil
}

// Fingerprint returns the SHA-256 fingerprint of the public key in
// OpenSSH format ("SHA256:...").
func (k *Key) Fingerprint() (string, error) {
	pub, err := k.SSHPublicKey()
	if err != nil {
		return "", err
	}
	return ssh.FingerprintSHA256(pub), nil
}
