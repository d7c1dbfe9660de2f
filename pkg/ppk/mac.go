package ppk

import (
	"crypto/hmac"
	"crypto/sha1"
)

const macKeyPrefix = "putty-private-key-file-mac-key"

// macKey computes SHA1("putty-private-key-file-mac-key" || passphrase).
// Unencrypted records use the empty passphrase.
func macKey(passphrase []byte) []byte {
	h := sha1.New()
	h.Write([]byte(macKeyPrefix))
	h.Write(passphrase)
	return h.Sum(nil)
}

// macBlob builds the canonical record covered by the MAC. The public and
// private blobs are embedded whole, each as a single field.
func macBlob(algorithm string, enc Encryption, comment string, publicBlob, privatePlaintext []byte) ([]byte, error) {
	return PackFields(
		[]byte(algorithm),
		[]byte(enc),
		[]byte(comment),
		publicBlob,
		privatePlaintext,
	)
}

// computeMAC returns HMAC-SHA1(macKey(passphrase), blob).
func computeMAC(passphrase, blob []byte) []byte {
	m := hmac.New(sha1.New, macKey(passphrase))
	m.Write(blob)
	return m.Sum(nil)
}

// verifyMAC compares the recomputed tag in constant time.
func verifyMAC(passphrase, blob, tag []byte) bool {
	return hmac.Equal(computeMAC(passphrase, blob), tag)
}
