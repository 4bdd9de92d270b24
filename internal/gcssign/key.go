package gcssign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParseKey decodes a PEM encoded RSA private key. Service account keys
// are PKCS#8 ("PRIVATE KEY"); PKCS#1 ("RSA PRIVATE KEY") blocks are
// accepted as well.
func ParseKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyDecode)
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key (%T)", ErrKeyDecode, parsed)
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDecode, err)
	}
	return rsaKey, nil
}

// RSASignBytes returns a signing func backed by key. The returned func
// signs with RSASSA-PKCS1-v1_5 over a SHA-256 digest, the only scheme
// the service verifies.
func RSASignBytes(key *rsa.PrivateKey) func([]byte) ([]byte, error) {
	return func(b []byte) ([]byte, error) {
		sum := sha256.Sum256(b)
		return rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
	}
}
