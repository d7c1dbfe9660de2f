package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

// KeyPair holds a generated RSA key and the algorithm it was made for.
type KeyPair struct {
	Algorithm  AlgorithmID
	PrivateKey *rsa.PrivateKey
}

// GenerateKeyPair generates a new RSA key pair for the specified algorithm.
//
// Example:
//
//	kp, err := crypto.GenerateKeyPair(crypto.AlgRSA2048)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	k, err := ppk.FromRSAPrivateKey(kp.PrivateKey)
func GenerateKeyPair(alg AlgorithmID) (*KeyPair, error) {
	return GenerateKeyPairWithRand(rand.Reader, alg)
}

// GenerateKeyPairWithRand generates a key pair using the provided random source.
func GenerateKeyPairWithRand(random io.Reader, alg AlgorithmID) (*KeyPair, error) {
	if !alg.IsValid() {
		return nil, fmt.Errorf("unsupported algorithm: %s", alg)
	}

	priv, err := rsa.GenerateKey(random, alg.Bits())
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", alg, err)
	}
	priv.Precompute()

	return &KeyPair{
		Algorithm:  alg,
		PrivateKey: priv,
	}, nil
}
