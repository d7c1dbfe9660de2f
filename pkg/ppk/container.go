package ppk

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	headerV1 = "PuTTY-User-Key-File-1"
	headerV2 = "PuTTY-User-Key-File-2"
	headerV3 = "PuTTY-User-Key-File-3"

	headerEncryption   = "Encryption"
	headerComment      = "Comment"
	headerPublicLines  = "Public-Lines"
	headerPrivateLines = "Private-Lines"
	headerPrivateMAC   = "Private-MAC"

	// blob lines are wrapped at this many base64 characters
	lineLength = 64

	// limits from PuTTY's loader
	maxKeyBlobSize  = 262144
	maxKeyBlobLines = maxKeyBlobSize / 48
)

// container is the textual form of a key before blob unpacking.
type container struct {
	algorithm   string
	encryption  Encryption
	comment     string
	publicBlob  []byte
	privateBlob []byte // possibly ciphertext
	mac         []byte
}

// decodeContainer parses the header lines and base64 sections.
// Unknown header lines are ignored.
func decodeContainer(data []byte) (*container, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, newFormatError("decode", "", fmt.Errorf("%w: empty input", ErrMalformedHeader))
	}

	key, value, ok := splitHeader(lines[0])
	if !ok {
		return nil, newFormatError("decode", "", fmt.Errorf("%w: first line is not a header", ErrMalformedHeader))
	}
	switch key {
	case headerV2:
	case headerV1, headerV3:
		return nil, newFormatError("decode", key, ErrUnsupportedVersion)
	default:
		return nil, newFormatError("decode", key, fmt.Errorf("%w: expected %s", ErrMalformedHeader, headerV2))
	}
	if value != AlgorithmRSA {
		return nil, newFormatError("decode", key, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, value))
	}

	c := &container{algorithm: value}
	var haveEncryption, havePublic, havePrivate, haveMAC bool

	for i := 1; i < len(lines); i++ {
		key, value, ok := splitHeader(lines[i])
		if !ok {
			continue
		}

		switch key {
		case headerEncryption:
			enc, err := ParseEncryption(value)
			if err != nil {
				return nil, newFormatError("decode", key, err)
			}
			c.encryption = enc
			haveEncryption = true

		case headerComment:
			c.comment = value

		case headerPublicLines, headerPrivateLines:
			n, err := parseLineCount(value)
			if err != nil {
				return nil, newFormatError("decode", key, err)
			}
			if i+1+n > len(lines) {
				return nil, newFormatError("decode", key,
					fmt.Errorf("%w: expected %d lines, %d remain", ErrMalformedHeader, n, len(lines)-i-1))
			}
			blob, err := decodeBlobLines(lines[i+1 : i+1+n])
			if err != nil {
				return nil, newFormatError("decode", key, err)
			}
			i += n

			if key == headerPublicLines {
				c.publicBlob = blob
				havePublic = true
			} else {
				c.privateBlob = blob
				havePrivate = true
			}

		case headerPrivateMAC:
			mac, err := hex.DecodeString(value)
			if err != nil {
				return nil, newFormatError("decode", key, fmt.Errorf("%w: %v", ErrInvalidEncoding, err))
			}
			c.mac = mac
			haveMAC = true

		case headerV1, headerV2, headerV3:
			return nil, newFormatError("decode", key, fmt.Errorf("%w: repeated file header", ErrMalformedHeader))
		}
	}

	for _, req := range []struct {
		name string
		seen bool
	}{
		{headerEncryption, haveEncryption},
		{headerPublicLines, havePublic},
		{headerPrivateLines, havePrivate},
		{headerPrivateMAC, haveMAC},
	} {
		if !req.seen {
			return nil, newFormatError("decode", req.name, fmt.Errorf("%w: missing header", ErrMalformedHeader))
		}
	}

	return c, nil
}

// encode writes the container in PuTTY's canonical layout.
func (c *container) encode() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", headerV2, c.algorithm)
	fmt.Fprintf(&b, "%s: %s\n", headerEncryption, c.encryption)
	fmt.Fprintf(&b, "%s: %s\n", headerComment, c.comment)
	writeBlob(&b, headerPublicLines, c.publicBlob)
	writeBlob(&b, headerPrivateLines, c.privateBlob)
	fmt.Fprintf(&b, "%s: %s\n", headerPrivateMAC, hex.EncodeToString(c.mac))
	return []byte(b.String())
}

func writeBlob(b *strings.Builder, header string, blob []byte) {
	lines := wrapLines(base64.StdEncoding.EncodeToString(blob), lineLength)
	fmt.Fprintf(b, "%s: %d\n", header, len(lines))
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// splitLines normalizes CRLF and CR line endings to LF and splits.
func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// splitHeader splits "key: value" on the first ": ". Keys are
// case-sensitive and may not contain whitespace.
func splitHeader(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, ": ")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, value, true
}

func parseLineCount(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid line count %q", ErrMalformedHeader, value)
	}
	if n < 0 || n >= maxKeyBlobLines {
		return 0, fmt.Errorf("%w: line count %d out of range", ErrMalformedHeader, n)
	}
	return n, nil
}

func decodeBlobLines(lines []string) ([]byte, error) {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(strings.TrimSpace(line))
	}
	blob, err := base64.StdEncoding.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return blob, nil
}

// wrapLines splits s into chunks of at most n characters.
func wrapLines(s string, n int) []string {
	var lines []string
	for len(s) > n {
		lines = append(lines, s[:n])
		s = s[n:]
	}
	if s != "" {
		lines = append(lines, s)
	}
	return lines
}
