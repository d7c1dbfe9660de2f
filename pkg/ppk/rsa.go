package ppk

import (
	"crypto/rsa"
	"fmt"
	"math"
	"math/big"
)

// Components is the generic RSA component set of a key. Dmp1 and Dmq1 are
// not stored in PPK files and are derived from D, P and Q.
type Components struct {
	E    *big.Int // public exponent
	N    *big.Int // modulus
	D    *big.Int // private exponent
	P    *big.Int // first prime
	Q    *big.Int // second prime
	Iqmp *big.Int // q^-1 mod p
	Dmp1 *big.Int // d mod (p-1)
	Dmq1 *big.Int // d mod (q-1)
}

// FromRSAComponents builds an unencrypted key record from RSA components.
// The comment is set to DefaultComment.
func FromRSAComponents(e, n, d, p, q, iqmp *big.Int) (*Key, error) {
	named := []struct {
		name string
		v    *big.Int
	}{
		{"e", e}, {"n", n}, {"d", d}, {"p", p}, {"q", q}, {"iqmp", iqmp},
	}
	for _, c := range named {
		if c.v == nil || c.v.Sign() <= 0 {
			return nil, newFormatError("import", c.name, fmt.Errorf("%w: missing or non-positive value", ErrInconsistentKey))
		}
	}
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		return nil, newFormatError("import", "n", fmt.Errorf("%w: p*q != n", ErrInconsistentKey))
	}

	k := &Key{
		algorithm:  AlgorithmRSA,
		comment:    DefaultComment,
		encryption: EncryptionNone,
	}
	k.setComponents(e, n, d, p, q, iqmp)
	return k, nil
}

// FromRSAPrivateKey builds an unencrypted key record from a two-prime RSA key.
func FromRSAPrivateKey(priv *rsa.PrivateKey) (*Key, error) {
	if priv == nil {
		return nil, newFormatError("import", "", fmt.Errorf("%w: key is nil", ErrInconsistentKey))
	}
	if len(priv.Primes) != 2 {
		return nil, newFormatError("import", "", fmt.Errorf("%w: %d primes, only two-prime keys are supported", ErrInconsistentKey, len(priv.Primes)))
	}

	p, q := priv.Primes[0], priv.Primes[1]
	iqmp := priv.Precomputed.Qinv
	if iqmp == nil {
		iqmp = new(big.Int).ModInverse(q, p)
		if iqmp == nil {
			return nil, newFormatError("import", "iqmp", fmt.Errorf("%w: q is not invertible mod p", ErrInconsistentKey))
		}
	}

	return FromRSAComponents(big.NewInt(int64(priv.E)), priv.N, priv.D, p, q, iqmp)
}

func (k *Key) setComponents(e, n, d, p, q, iqmp *big.Int) {
	k.exponent = EncodeMPInt(e)
	k.modulus = EncodeMPInt(n)
	k.privateExponent = EncodeMPInt(d)
	k.primeP = EncodeMPInt(p)
	k.primeQ = EncodeMPInt(q)
	k.iqmp = EncodeMPInt(iqmp)
	k.invalidate()
}

// RSAComponents returns the key's RSA components, deriving dmp1 and dmq1.
func (k *Key) RSAComponents() (*Components, error) {
	if k.locked {
		return nil, newFormatError("components", "", ErrKeyLocked)
	}

	c := &Components{
		E:    DecodeMPInt(k.exponent),
		N:    DecodeMPInt(k.modulus),
		D:    DecodeMPInt(k.privateExponent),
		P:    DecodeMPInt(k.primeP),
		Q:    DecodeMPInt(k.primeQ),
		Iqmp: DecodeMPInt(k.iqmp),
	}

	one := big.NewInt(1)
	if c.P.Cmp(one) <= 0 || c.Q.Cmp(one) <= 0 {
		return nil, newFormatError("components", "p", fmt.Errorf("%w: primes must be greater than one", ErrInconsistentKey))
	}
	c.Dmp1 = new(big.Int).Mod(c.D, new(big.Int).Sub(c.P, one))
	c.Dmq1 = new(big.Int).Mod(c.D, new(big.Int).Sub(c.Q, one))
	return c, nil
}

// RSAPublicKey returns the public half of the key. It is available on
// locked keys.
func (k *Key) RSAPublicKey() (*rsa.PublicKey, error) {
	e := DecodeMPInt(k.exponent)
	if !e.IsInt64() || e.Int64() > math.MaxInt32 || e.Sign() <= 0 {
		return nil, newFormatError("components", "e", fmt.Errorf("%w: public exponent out of range", ErrInconsistentKey))
	}
	return &rsa.PublicKey{
		N: DecodeMPInt(k.modulus),
		E: int(e.Int64()),
	}, nil
}

// RSAPrivateKey returns the key as a validated, precomputed *rsa.PrivateKey.
// The stored CRT coefficient must match the one derived from p and q.
func (k *Key) RSAPrivateKey() (*rsa.PrivateKey, error) {
	pub, err := k.RSAPublicKey()
	if err != nil {
		return nil, err
	}
	c, err := k.RSAComponents()
	if err != nil {
		return nil, err
	}

	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         c.D,
		Primes:    []*big.Int{c.P, c.Q},
	}
	if err := priv.Validate(); err != nil {
		return nil, newFormatError("components", "", fmt.Errorf("%w: %v", ErrInconsistentKey, err))
	}
	priv.Precompute()

	if priv.Precomputed.Qinv == nil || priv.Precomputed.Qinv.Cmp(c.Iqmp) != 0 {
		return nil, newFormatError("components", "iqmp", fmt.Errorf("%w: iqmp does not match q^-1 mod p", ErrInconsistentKey))
	}
	return priv, nil
}
