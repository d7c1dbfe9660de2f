package ppk

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const (
	testPassphrase = "asdf"
	testComment    = "imported-openssh-key"
)

// readTestdata reads a fixture from testdata/.
func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read testdata %s: %v", name, err)
	}
	return data
}

// referenceKey returns the PKCS#1 RSA key matching clear.ppk and encrypted.ppk.
func referenceKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	block, _ := pem.Decode(readTestdata(t, "reference.pem"))
	if block == nil {
		t.Fatal("no PEM block in reference.pem")
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		t.Fatalf("Failed to parse reference key: %v", err)
	}
	return priv
}

var (
	generatedOnce sync.Once
	generatedKey  *rsa.PrivateKey
	generatedErr  error
)

// generatedRSAKey returns a fresh 2048-bit key, generated once per test binary.
func generatedRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	generatedOnce.Do(func() {
		generatedKey, generatedErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if generatedErr != nil {
		t.Fatalf("Failed to generate RSA key: %v", generatedErr)
	}
	return generatedKey
}

// assertSameRSA compares every component including the derived CRT values.
func assertSameRSA(t *testing.T, want *rsa.PrivateKey, got *Components) {
	t.Helper()
	want.Precompute()
	checks := []struct {
		name      string
		want, got interface{ String() string }
	}{
		{"n", want.N, got.N},
		{"d", want.D, got.D},
		{"p", want.Primes[0], got.P},
		{"q", want.Primes[1], got.Q},
		{"dmp1", want.Precomputed.Dp, got.Dmp1},
		{"dmq1", want.Precomputed.Dq, got.Dmq1},
		{"iqmp", want.Precomputed.Qinv, got.Iqmp},
	}
	if got.E.Int64() != int64(want.E) {
		t.Errorf("e = %s, want %d", got.E, want.E)
	}
	for _, c := range checks {
		if c.want.String() != c.got.String() {
			t.Errorf("%s mismatch:\n got  %s\n want %s", c.name, c.got, c.want)
		}
	}
}
