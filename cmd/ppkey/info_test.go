package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/ppkey/pkg/ppk"
)

func TestF_Info_Text(t *testing.T) {
	tc := newTestContext(t)

	out, err := executeCommand(rootCmd, "info", tc.fixture("clear.ppk"))
	assertNoError(t, err)

	for _, want := range []string{"ssh-rsa", "2048 bits", testComment, "none", "verified", testFingerprint} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestF_Info_Formats(t *testing.T) {
	tests := []struct {
		name         string
		fixture      string
		args         []string
		wantEnc      string
		wantVerified bool
	}{
		{"[Unit] Info: clear key", "clear.ppk", nil, "none", true},
		{"[Unit] Info: encrypted key, no passphrase", "encrypted.ppk", nil, "aes256-cbc", false},
		{"[Unit] Info: encrypted key, passphrase", "encrypted.ppk", []string{"--passphrase", testPassphrase}, "aes256-cbc", true},
	}

	decoders := map[string]func([]byte, any) error{
		"json": json.Unmarshal,
		"yaml": yaml.Unmarshal,
	}

	for _, tt := range tests {
		for format, decode := range decoders {
			t.Run(tt.name+" ("+format+")", func(t *testing.T) {
				tc := newTestContext(t)
				args := append([]string{"info", tc.fixture(tt.fixture), "--format", format}, tt.args...)
				out, err := executeCommand(rootCmd, args...)
				assertNoError(t, err)

				var info keyInfo
				if err := decode([]byte(out), &info); err != nil {
					t.Fatalf("decode %s output: %v\n%s", format, err, out)
				}
				if info.Fingerprint != testFingerprint {
					t.Errorf("Fingerprint = %s, want %s", info.Fingerprint, testFingerprint)
				}
				if info.Bits != 2048 {
					t.Errorf("Bits = %d, want 2048", info.Bits)
				}
				if info.Encryption != tt.wantEnc {
					t.Errorf("Encryption = %s, want %s", info.Encryption, tt.wantEnc)
				}
				if info.Verified != tt.wantVerified {
					t.Errorf("Verified = %v, want %v", info.Verified, tt.wantVerified)
				}

				pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(info.AuthorizedKey))
				if err != nil {
					t.Fatalf("ParseAuthorizedKey() error = %v", err)
				}
				if comment != testComment {
					t.Errorf("authorized_key comment = %q, want %q", comment, testComment)
				}
				if ssh.FingerprintSHA256(pub) != testFingerprint {
					t.Error("authorized_key does not match the fingerprint")
				}
			})
		}
	}
}

func TestF_Info_WrongPassphrase(t *testing.T) {
	tc := newTestContext(t)
	_, err := executeCommand(rootCmd, "info", tc.fixture("encrypted.ppk"), "--passphrase", "wrong")
	if !errors.Is(err, ppk.ErrDecryptionFailed) {
		t.Errorf("error = %v, want ErrDecryptionFailed", err)
	}
}

func TestF_Info_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
	}{
		{"[Unit] Info: unknown format", "", []string{"--format", "xml"}},
		{"[Unit] Info: version 3 file", "PuTTY-User-Key-File-3: ssh-rsa\n", nil},
		{"[Unit] Info: not a PPK file", "hello\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestContext(t)
			path := tc.fixture("clear.ppk")
			if tt.content != "" {
				path = tc.writeFile("bad.ppk", tt.content)
			}
			_, err := executeCommand(rootCmd, append([]string{"info", path}, tt.args...)...)
			assertError(t, err)
		})
	}
}

func TestF_Pub(t *testing.T) {
	tc := newTestContext(t)

	// No passphrase is needed for the public key.
	out, err := executeCommand(rootCmd, "pub", tc.fixture("encrypted.ppk"))
	assertNoError(t, err)

	pub, comment, _, rest, err := ssh.ParseAuthorizedKey([]byte(out))
	if err != nil {
		t.Fatalf("ParseAuthorizedKey() error = %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected trailing output: %q", rest)
	}
	if comment != testComment {
		t.Errorf("comment = %q, want %q", comment, testComment)
	}
	if pub.Type() != ssh.KeyAlgoRSA {
		t.Errorf("Type() = %s, want %s", pub.Type(), ssh.KeyAlgoRSA)
	}
	if ssh.FingerprintSHA256(pub) != testFingerprint {
		t.Errorf("fingerprint = %s, want %s", ssh.FingerprintSHA256(pub), testFingerprint)
	}
}

func TestF_Pub_ToFile(t *testing.T) {
	tc := newTestContext(t)
	out := tc.path("key.pub")

	_, err := executeCommand(rootCmd, "pub", tc.fixture("clear.ppk"), "--out", out)
	assertNoError(t, err)

	if !strings.HasPrefix(string(readFile(t, out)), "ssh-rsa AAAA") {
		t.Errorf("unexpected public key file:\n%s", readFile(t, out))
	}
}
