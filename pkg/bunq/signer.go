package bunq

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
)

// KeyBits is the size of the RSA key registered at installation
const KeyBits = 2048

// Sign computes the detached signature bunq expects in X-Bunq-Client-Signature:
// RSA PKCS#1 v1.5 over the SHA-256 digest of body, base64 encoded.
// body must be the exact bytes that go on the wire.
func Sign(body []byte, key *rsa.PrivateKey) (string, error) {
	if key == nil {
		return "", cryptoErr("sign: nil private key", nil)
	}
	digest := sha256.Sum256(body)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", cryptoErr("sign", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a signature produced by Sign
func Verify(body []byte, signature string, pub *rsa.PublicKey) error {
	if pub == nil {
		return cryptoErr("verify: nil public key", nil)
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return cryptoErr("verify: decode signature", err)
	}
	digest := sha256.Sum256(body)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return cryptoErr("verify", err)
	}
	return nil
}

// GenerateKey creates a fresh key pair for a new installation
func GenerateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, cryptoErr("generate key", err)
	}
	return key, nil
}

// EncodePrivateKeyPEM serializes key as a PKCS#1 "RSA PRIVATE KEY" block
func EncodePrivateKeyPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

// ParsePrivateKeyPEM accepts PKCS#1 and PKCS#8 encoded RSA keys
func ParsePrivateKeyPEM(data string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, cryptoErr("parse private key: no PEM block", nil)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, cryptoErr("parse private key", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, cryptoErr("parse private key: not an RSA key", nil)
	}
	return key, nil
}

// EncodePublicKeyPEM serializes pub as a PKIX "PUBLIC KEY" block, the form
// the installation endpoint accepts.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", cryptoErr("encode public key", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// ParsePublicKeyPEM parses a PKIX or PKCS#1 RSA public key
func ParsePublicKeyPEM(data string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, cryptoErr("parse public key: no PEM block", nil)
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cryptoErr("parse public key", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, cryptoErr("parse public key: not an RSA key", nil)
	}
	return pub, nil
}
