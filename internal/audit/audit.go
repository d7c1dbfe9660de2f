package audit

import (
	"fmt"
	"sync"
)

var (
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex
	enabled      bool
)

// Init installs w as the global audit writer. A nil writer disables auditing.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}

	globalWriter = w
	enabled = true
	return nil
}

// InitFile initializes the global audit logger with a file writer.
// An empty path disables auditing.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}

	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global audit writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	err := globalWriter.Close()
	globalWriter = NopWriter{}
	enabled = false
	return err
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an audit event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	return w.Write(event)
}

// MustLog writes an audit event and returns an error suitable for
// failing the parent operation if audit logging fails.
//
// Usage:
//
//	if err := audit.MustLog(event); err != nil {
//	    return nil, err // Operation fails if audit fails
//	}
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogKeyImported logs the creation of a PPK file from a PEM key.
func LogKeyImported(obj Object, source, encryption string) error {
	event := NewEvent(EventKeyImported, ResultSuccess).
		WithObject(obj).
		WithContext(Context{
			Algorithm:  "ssh-rsa",
			Encryption: encryption,
			Source:     source,
		})
	return MustLog(event)
}

// LogKeyExported logs the export of a PPK key to PEM.
func LogKeyExported(obj Object, source, format string, encrypted bool) error {
	ctx := Context{
		Algorithm:  "ssh-rsa",
		Format:     format,
		Source:     source,
		Encryption: "none",
	}
	if encrypted {
		ctx.Encryption = "pem-aes256"
	}
	return MustLog(NewEvent(EventKeyExported, ResultSuccess).WithObject(obj).WithContext(ctx))
}

// LogKeyConverted logs a PPK re-encryption or comment change.
func LogKeyConverted(obj Object, source, encryption string) error {
	event := NewEvent(EventKeyConverted, ResultSuccess).
		WithObject(obj).
		WithContext(Context{
			Algorithm:  "ssh-rsa",
			Encryption: encryption,
			Source:     source,
		})
	return MustLog(event)
}

// LogKeyGenerated logs the generation of a new key.
func LogKeyGenerated(obj Object, algorithm string, bits int, encryption string) error {
	event := NewEvent(EventKeyGenerated, ResultSuccess).
		WithObject(obj).
		WithContext(Context{
			Algorithm:  algorithm,
			Bits:       bits,
			Encryption: encryption,
		})
	return MustLog(event)
}

// LogKeyInspected logs a read of key metadata.
func LogKeyInspected(obj Object, encryption string, bits int) error {
	event := NewEvent(EventKeyInspected, ResultSuccess).
		WithObject(obj).
		WithContext(Context{
			Algorithm:  "ssh-rsa",
			Bits:       bits,
			Encryption: encryption,
		})
	return MustLog(event)
}

// LogAuthFailed logs a missing or wrong passphrase.
func LogAuthFailed(obj Object, reason string) error {
	event := NewEvent(EventAuthFailed, ResultFailure).
		WithObject(obj).
		WithContext(Context{
			Reason: reason,
		})
	return MustLog(event)
}
