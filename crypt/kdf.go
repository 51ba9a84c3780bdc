package crypt

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Returned when a keyfile is required but has no path or cannot be read.
var ErrKeyFileUnavailable = errors.New("keyfile unavailable")

// The fixed Scrypt cost used whenever Scrypt is the selected hash.
const ScryptCost uint32 = 32768

// Params holds everything needed to build a KDF. The meaning of I1, I2, and I3
// depends on the selected hash; see HashParams.
type Params struct {
	HMAC       uint8
	Hash       uint8
	Encryption uint8

	I1 uint32
	I2 uint32
	I3 uint32

	// The salt used by Transform when none is given. Databases use their IV.
	Seed []byte

	KeyFilePath string
}

// A KDF resolves table indices into derivation functions and ciphers, and
// transforms passwords and keyfiles into cipher keys.
type KDF struct {
	params Params

	// The measured cost of a single round, filled in by the first benchmark.
	roundCost time.Duration
}

// HashParams maps the persisted hash settings onto the (I1, I2, I3) triple for
// the given hash. Argon2id takes memory in KiB, iterations, and parallelism,
// Scrypt takes a fixed N, r, and p, and everything else uses I1 as its round
// count.
func HashParams(hash, iterations uint8, memoryUsage uint16) (i1, i2, i3 uint32) {
	switch hash {
	case 0:
		return uint32(memoryUsage) * 1000, uint32(iterations), 1
	case 2:
		return ScryptCost, uint32(iterations), 1
	default:
		return uint32(iterations), 0, 0
	}
}

// New validates the given table indices and builds a KDF from them.
func New(p Params) (*KDF, error) {
	if int(p.HMAC) >= len(hmacTable) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "hmac index %d", p.HMAC)
	}
	if int(p.Hash) >= len(hashTable) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "hash index %d", p.Hash)
	}
	if int(p.Encryption) >= len(cipherTable) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "encryption index %d", p.Encryption)
	}

	// Copy the seed so later changes by the caller don't leak in.
	seed := make([]byte, len(p.Seed))
	copy(seed, p.Seed)
	p.Seed = seed

	return &KDF{params: p}, nil
}

// Params returns a copy of the KDF's parameters.
func (k *KDF) Params() Params {
	p := k.params
	p.Seed = append([]byte(nil), k.params.Seed...)
	return p
}

func pick(override, configured uint8) uint8 {
	if override == Configured {
		return configured
	}
	return override
}

// ResolveCipher builds the selected AEAD keyed with the given key. Passing
// Configured selects the KDF's own cipher. An AEAD both seals and opens, so the
// same instance serves encryption and decryption.
func (k *KDF) ResolveCipher(key []byte, override uint8) (cipher.AEAD, error) {
	index := pick(override, k.params.Encryption)
	if int(index) >= len(cipherTable) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "encryption index %d", index)
	}

	algorithm := cipherTable[index]
	if len(key) != algorithm.KeySize {
		return nil, errors.Errorf("%s needs a %d byte key (got %d bytes)",
			algorithm.Name, algorithm.KeySize, len(key))
	}

	aead, err := algorithm.New(key)
	if err != nil {
		return nil, errors.Wrap(err, algorithm.Name)
	}
	return aead, nil
}

// ResolveDerivation builds a PBKDF2 deriver over the selected HMAC hash, using
// I1 as its round count.
func (k *KDF) ResolveDerivation(override uint8) (Deriver, error) {
	index := pick(override, k.params.HMAC)
	if int(index) >= len(hmacTable) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "hmac index %d", index)
	}

	algorithm := hmacTable[index]
	return &pbkdf2Deriver{algorithm.Name, algorithm.New, k.params.I1}, nil
}

// ResolveHasher builds the selected password hash, parameterized by I1, I2,
// and I3. The no-hashing sentinel resolves to the configured derivation.
func (k *KDF) ResolveHasher(override uint8) (Deriver, error) {
	index := pick(override, k.params.Hash)
	switch index {
	case 0:
		return &argon2Deriver{k.params.I1, k.params.I2, k.params.I3}, nil
	case 1:
		return &bcryptDeriver{k.params.I1}, nil
	case 2:
		return &scryptDeriver{k.params.I1, k.params.I2, k.params.I3}, nil
	case NoHashing:
		return k.ResolveDerivation(Configured)
	default:
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "hash index %d", index)
	}
}

// Transform derives a cipher key from the given data. A nil seed uses the KDF's
// own seed. The output is always as long as the configured cipher's key.
func (k *KDF) Transform(data, seed []byte) ([]byte, error) {
	if seed == nil {
		seed = k.params.Seed
	}

	var (
		deriver Deriver
		err     error
	)
	if k.params.Hash == NoHashing {
		deriver, err = k.ResolveDerivation(Configured)
	} else {
		deriver, err = k.ResolveHasher(Configured)
	}
	if err != nil {
		return nil, err
	}

	keySize, err := KeySize(k.params.Encryption)
	if err != nil {
		return nil, err
	}

	key, err := deriver.Derive(data, seed, keySize)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to derive key with %s", deriver.Name())
	}
	return key, nil
}

// ReadKeyFile reads the full contents of the configured keyfile.
func (k *KDF) ReadKeyFile() ([]byte, error) {
	if k.params.KeyFilePath == "" {
		return nil, errors.Wrap(ErrKeyFileUnavailable, "no keyfile configured")
	}

	data, err := os.ReadFile(k.params.KeyFilePath)
	if err != nil {
		return nil, errors.Wrapf(ErrKeyFileUnavailable, "%s: %v", k.params.KeyFilePath, err)
	}
	return data, nil
}

// String briefly describes the KDF, e.g. "Argon2id + AES-256/GCM".
func (k *KDF) String() string {
	var hashName string
	if k.params.Hash == NoHashing {
		hashName = fmt.Sprintf("PBKDF2(%s)", hmacTable[k.params.HMAC].Name)
	} else {
		hashName = hashTable[k.params.Hash].Name
	}
	return hashName + " + " + cipherTable[k.params.Encryption].Name
}

// NewNonce generates a securely-random nonce for the given cipher.
func NewNonce(encryption uint8) ([]byte, error) {
	size, err := NonceSize(encryption)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, size)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "unable to generate nonce")
	}
	return nonce, nil
}
