package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// The fixed scheme of the pre-2.0 format: PBKDF2-HMAC-SHA-256 over the
// password with the IV as its salt, feeding AES-256/GCM with a nonce as long
// as the IV. Nothing about it is configurable.
const (
	LegacyRounds  = 150000
	LegacyKeySize = 32
)

// LegacyKey derives the fixed-size key of the pre-2.0 format.
func LegacyKey(password string, iv []byte) []byte {
	return pbkdf2.Key([]byte(password), iv, LegacyRounds, LegacyKeySize, sha256.New)
}

func legacyAEAD(key, iv []byte) (cipher.AEAD, error) {
	if len(iv) == 0 {
		return nil, errors.New("legacy IV is empty")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, len(iv))
}

// OpenLegacy decrypts a payload written in the pre-2.0 format. Authentication
// failures are returned as errors.
func OpenLegacy(password string, iv, ciphertext []byte) ([]byte, error) {
	aead, err := legacyAEAD(LegacyKey(password, iv), iv)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "legacy decryption failed")
	}
	return plaintext, nil
}

// SealLegacy encrypts a payload in the pre-2.0 format. Nothing writes this
// format anymore, but it's useful for producing files to migrate.
func SealLegacy(password string, iv, plaintext []byte) ([]byte, error) {
	aead, err := legacyAEAD(LegacyKey(password, iv), iv)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}
