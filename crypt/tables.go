package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
	"golang.org/x/crypto/twofish"
)

// The index that selects whatever algorithm the KDF was configured with, for
// any of the three tables below.
const Configured uint8 = 63

// The hash table index that disables password hashing entirely, leaving only
// plain derivation through the HMAC table.
const NoHashing uint8 = 3

// Returned whenever an algorithm index falls outside of its table.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// A hash function usable as the PRF for PBKDF2.
type hmacAlgorithm struct {
	Name string
	New  func() hash.Hash
}

// A single entry of the password hashing table. The derivation sentinel has no
// constructor of its own.
type hashAlgorithm struct {
	Name string
}

// An AEAD construction along with the key and nonce sizes it expects.
type cipherAlgorithm struct {
	Name      string
	KeySize   int
	NonceSize int
	New       func(key []byte) (cipher.AEAD, error)
}

// The HMAC table. Skein-512 has no Go implementation in x/crypto, so its slot
// is filled by BLAKE2s-256.
var hmacTable = []hmacAlgorithm{
	{"BLAKE2b-512", newBlake2b512},
	{"SHA3-512", sha3.New512},
	{"SHAKE-256", newShake256},
	{"BLAKE2s-256", newBlake2s256},
	{"SHA-512", sha512.New},
}

var hashTable = []hashAlgorithm{
	{"Argon2id"},
	{"Bcrypt-PBKDF"},
	{"Scrypt"},
	{"No hashing, only derivation"},
}

// The cipher table. SHACAL2/EAX and Serpent/GCM have no maintained Go
// implementations; XChaCha20-Poly1305 and ChaCha20-Poly1305 take their slots.
var cipherTable = []cipherAlgorithm{
	{"AES-256/GCM", 32, 12, newAESGCM},
	{"Twofish/GCM", 32, 12, newTwofishGCM},
	{"XChaCha20-Poly1305", chacha20poly1305.KeySize, chacha20poly1305.NonceSizeX, chacha20poly1305.NewX},
	{"ChaCha20-Poly1305", chacha20poly1305.KeySize, chacha20poly1305.NonceSize, chacha20poly1305.New},
}

// The number of entries in each of the algorithm tables.
func HMACCount() int       { return len(hmacTable) }
func HashCount() int       { return len(hashTable) }
func EncryptionCount() int { return len(cipherTable) }

// HMACName returns the display name of the given HMAC table entry.
func HMACName(index uint8) (string, error) {
	if int(index) >= len(hmacTable) {
		return "", errors.Wrapf(ErrUnsupportedAlgorithm, "hmac index %d", index)
	}
	return hmacTable[index].Name, nil
}

// HashName returns the display name of the given hash table entry.
func HashName(index uint8) (string, error) {
	if int(index) >= len(hashTable) {
		return "", errors.Wrapf(ErrUnsupportedAlgorithm, "hash index %d", index)
	}
	return hashTable[index].Name, nil
}

// EncryptionName returns the display name of the given cipher table entry.
func EncryptionName(index uint8) (string, error) {
	if int(index) >= len(cipherTable) {
		return "", errors.Wrapf(ErrUnsupportedAlgorithm, "encryption index %d", index)
	}
	return cipherTable[index].Name, nil
}

// NonceSize returns the nonce length of the given cipher, which is also the
// length of the IV stored in a database header.
func NonceSize(index uint8) (int, error) {
	if int(index) >= len(cipherTable) {
		return 0, errors.Wrapf(ErrUnsupportedAlgorithm, "encryption index %d", index)
	}
	return cipherTable[index].NonceSize, nil
}

// KeySize returns the key length of the given cipher.
func KeySize(index uint8) (int, error) {
	if int(index) >= len(cipherTable) {
		return 0, errors.Wrapf(ErrUnsupportedAlgorithm, "encryption index %d", index)
	}
	return cipherTable[index].KeySize, nil
}

func newBlake2b512() hash.Hash {
	// blake2b only fails for keys longer than 64 bytes.
	h, _ := blake2b.New512(nil)
	return h
}

func newBlake2s256() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func newTwofishGCM(key []byte) (cipher.AEAD, error) {
	block, err := twofish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SHAKE-256 is an extendable-output function, not a hash.Hash, so HMAC needs a
// fixed-size view of it. Sum reads 64 bytes from a clone of the running state.
type shakeHash struct {
	state sha3.ShakeHash
}

const (
	shake256Size      = 64
	shake256BlockSize = 136
)

func newShake256() hash.Hash {
	return &shakeHash{sha3.NewShake256()}
}

func (s *shakeHash) Write(p []byte) (int, error) {
	return s.state.Write(p)
}

func (s *shakeHash) Sum(b []byte) []byte {
	out := make([]byte, shake256Size)
	s.state.Clone().Read(out)
	return append(b, out...)
}

func (s *shakeHash) Reset()         { s.state.Reset() }
func (s *shakeHash) Size() int      { return shake256Size }
func (s *shakeHash) BlockSize() int { return shake256BlockSize }
