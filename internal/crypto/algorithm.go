// Package crypto provides the generic RSA key plumbing around the PPK codec:
// PEM parsing and serialization (PKCS#1 and PKCS#8) and key generation.
package crypto

import (
	"fmt"
	"strings"
)

// AlgorithmID identifies a key generation algorithm.
type AlgorithmID string

// RSA key sizes accepted for generation.
const (
	AlgRSA2048 AlgorithmID = "rsa-2048"
	AlgRSA3072 AlgorithmID = "rsa-3072"
	AlgRSA4096 AlgorithmID = "rsa-4096"
)

// algorithmInfo holds metadata about an algorithm.
type algorithmInfo struct {
	Bits        int
	Description string
}

var algorithms = map[AlgorithmID]algorithmInfo{
	AlgRSA2048: {Bits: 2048, Description: "RSA 2048-bit"},
	AlgRSA3072: {Bits: 3072, Description: "RSA 3072-bit"},
	AlgRSA4096: {Bits: 4096, Description: "RSA 4096-bit"},
}

// IsValid returns true if the algorithm is known.
func (a AlgorithmID) IsValid() bool {
	_, ok := algorithms[a]
	return ok
}

// Bits returns the modulus size for the algorithm, or 0 if unknown.
func (a AlgorithmID) Bits() int {
	return algorithms[a].Bits
}

// Description returns a human-readable description.
func (a AlgorithmID) Description() string {
	if info, ok := algorithms[a]; ok {
		return info.Description
	}
	return "unknown"
}

// String returns the algorithm identifier.
func (a AlgorithmID) String() string {
	return string(a)
}

// ParseAlgorithm parses an algorithm name. Bare sizes ("2048") are accepted.
func ParseAlgorithm(s string) (AlgorithmID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "rsa-") {
		s = "rsa-" + s
	}
	alg := AlgorithmID(s)
	if !alg.IsValid() {
		return "", fmt.Errorf("unknown algorithm: %s (supported: %s)", s, strings.Join(AlgorithmNames(), ", "))
	}
	return alg, nil
}

// AlgorithmNames returns the supported algorithm names in size order.
func AlgorithmNames() []string {
	return []string{string(AlgRSA2048), string(AlgRSA3072), string(AlgRSA4096)}
}
