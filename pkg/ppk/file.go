package ppk

import (
	"fmt"
	"os"
)

// Load reads a PPK file and unlocks it with passphrase.
func Load(path string, passphrase []byte) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return Parse(data, passphrase)
}

// LoadLocked reads a PPK file without unlocking it.
func LoadLocked(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return Decode(data)
}

// Save writes the key to path with mode 0600, encrypted when passphrase
// is non-empty.
func (k *Key) Save(path string, passphrase []byte) error {
	data, err := k.Marshal(passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
