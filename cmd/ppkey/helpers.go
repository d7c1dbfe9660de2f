package main

import (
	"errors"
	"fmt"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

// resolvePassphrase returns the flag value, or the passphrase from the
// configured environment variable when the flag is empty.
func resolvePassphrase(flag string) []byte {
	if flag != "" {
		return []byte(flag)
	}
	return cfg.Passphrase()
}

// resolveComment returns the flag value or the configured default comment.
func resolveComment(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.DefaultComment != "" {
		return cfg.DefaultComment
	}
	return ppk.DefaultComment
}

// encryptionName returns the PPK encryption written for passphrase.
func encryptionName(passphrase []byte) string {
	if len(passphrase) > 0 {
		return ppk.EncryptionAES256CBC.String()
	}
	return ppk.EncryptionNone.String()
}

// keyObject describes a key for audit events.
func keyObject(path string, k *ppk.Key) audit.Object {
	fp, _ := k.Fingerprint()
	return audit.Object{
		Type:        "ppk",
		Path:        path,
		Fingerprint: fp,
		Comment:     k.Comment(),
	}
}

// openPPK loads and unlocks a PPK file. Passphrase failures are audited.
func openPPK(path string, passphrase []byte) (*ppk.Key, error) {
	k, err := ppk.LoadLocked(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := unlockPPK(path, k, passphrase); err != nil {
		return nil, err
	}
	return k, nil
}

// unlockPPK unlocks k and records missing or wrong passphrases.
func unlockPPK(path string, k *ppk.Key, passphrase []byte) error {
	err := k.Unlock(passphrase)
	if err == nil {
		return nil
	}
	if errors.Is(err, ppk.ErrPassphraseRequired) || errors.Is(err, ppk.ErrDecryptionFailed) {
		if logErr := audit.LogAuthFailed(keyObject(path, k), err.Error()); logErr != nil {
			return logErr
		}
	}
	return fmt.Errorf("failed to unlock %s: %w", path, err)
}
