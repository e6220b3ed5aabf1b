package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/normano/c5store/errors"
)

// Wire layout for the ecies_x25519 algorithm: an ECDH-wrap-then-AEAD-seal
// envelope built on X25519 rather than P-256 scalar multiplication:
//
//	base64( ephemeral-public-key(32) || nonce(12) || aead-ciphertext-and-tag )
//
// The key registered under key-name is the recipient's 32-byte X25519
// static secret scalar, extracted from a PKCS#8 PEM file or provided
// raw.
const (
	x25519ScalarLen = 32
	gcmNonceLen     = 12
)

var hkdfInfo = []byte("c5store/ecies_x25519/v1")

// decryptECIESX25519 implements the "ecies_x25519" algorithm:
// X25519 + HKDF-SHA256 + AES-256-GCM.
func decryptECIESX25519(ciphertext, key []byte) ([]byte, error) {
	const op = "secret.decryptECIESX25519"
	if len(key) != x25519ScalarLen {
		return nil, errors.E(errors.Op(op), errors.Decryption,
			errors.Errorf("recipient key must be %d bytes, got %d", x25519ScalarLen, len(key)))
	}

	wire, err := base64.StdEncoding.DecodeString(string(ciphertext))
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}
	if len(wire) < x25519ScalarLen+gcmNonceLen {
		return nil, errors.E(errors.Op(op), errors.Decryption,
			errors.Str("ciphertext too short for ecies_x25519 envelope"))
	}

	ephemeralPub := wire[:x25519ScalarLen]
	nonce := wire[x25519ScalarLen : x25519ScalarLen+gcmNonceLen]
	sealed := wire[x25519ScalarLen+gcmNonceLen:]

	var recipientScalar [x25519ScalarLen]byte
	copy(recipientScalar[:], key)

	shared, err := curve25519.X25519(recipientScalar[:], ephemeralPub)
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}

	aeadKey := make([]byte, 32)
	kdf := hkdf.New(sha256.New, shared, ephemeralPub, hkdfInfo)
	if _, err := io.ReadFull(kdf, aeadKey); err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}

	block, err := aes.NewCipher(aeadKey)
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.E(errors.Op(op), errors.Decryption, err)
	}
	return plain, nil
}

// SealECIESX25519 is the encrypt-side counterpart used by tests (and
// by any host wishing to produce fixtures without a separate CLI
// tool). It is not part of the store's runtime write path, which only
// ever decrypts.
func SealECIESX25519(plaintext, recipientPub []byte) (string, error) {
	const op = "secret.SealECIESX25519"
	if len(recipientPub) != x25519ScalarLen {
		return "", errors.E(errors.Op(op), errors.Invalid,
			errors.Errorf("recipient public key must be %d bytes", x25519ScalarLen))
	}

	var ephemeralPriv [x25519ScalarLen]byte
	if _, err := io.ReadFull(randReader, ephemeralPriv[:]); err != nil {
		return "", errors.E(errors.Op(op), err)
	}
	ephemeralPub, err := curve25519.X25519(ephemeralPriv[:], curve25519.Basepoint)
	if err != nil {
		return "", errors.E(errors.Op(op), err)
	}

	shared, err := curve25519.X25519(ephemeralPriv[:], recipientPub)
	if err != nil {
		return "", errors.E(errors.Op(op), err)
	}

	aeadKey := make([]byte, 32)
	kdf := hkdf.New(sha256.New, shared, ephemeralPub, hkdfInfo)
	if _, err := io.ReadFull(kdf, aeadKey); err != nil {
		return "", errors.E(errors.Op(op), err)
	}

	block, err := aes.NewCipher(aeadKey)
	if err != nil {
		return "", errors.E(errors.Op(op), err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.E(errors.Op(op), err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return "", errors.E(errors.Op(op), err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	wire := make([]byte, 0, x25519ScalarLen+gcmNonceLen+len(sealed))
	wire = append(wire, ephemeralPub...)
	wire = append(wire, nonce...)
	wire = append(wire, sealed...)
	return base64.StdEncoding.EncodeToString(wire), nil
}
