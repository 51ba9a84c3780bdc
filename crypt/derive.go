package crypt

import (
	"fmt"
	"hash"

	"github.com/dchest/bcrypt_pbkdf"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// A Deriver turns a password and a salt into key material of the requested
// length.
type Deriver interface {
	Derive(password, salt []byte, keyLen int) ([]byte, error)
	Name() string
}

// Plain PBKDF2 over one of the HMAC table's hash functions.
type pbkdf2Deriver struct {
	name   string
	hash   func() hash.Hash
	rounds uint32
}

func (d *pbkdf2Deriver) Name() string {
	return fmt.Sprintf("PBKDF2(%s)", d.name)
}

func (d *pbkdf2Deriver) Derive(password, salt []byte, keyLen int) ([]byte, error) {
	if d.rounds == 0 {
		return nil, errors.New("rounds must be larger than zero")
	}
	return pbkdf2.Key(password, salt, int(d.rounds), keyLen, d.hash), nil
}

// Argon2id, with memory in KiB, a time cost, and a degree of parallelism.
type argon2Deriver struct {
	memory  uint32
	time    uint32
	threads uint32
}

func (d *argon2Deriver) Name() string { return "Argon2id" }

func (d *argon2Deriver) Derive(password, salt []byte, keyLen int) ([]byte, error) {
	// argon2 panics on these rather than returning an error, so we check them
	// ourselves.
	if d.memory == 0 {
		return nil, errors.New("memory must be larger than zero")
	} else if d.time == 0 {
		return nil, errors.New("time must be larger than zero")
	} else if d.threads == 0 || d.threads > 255 {
		return nil, errors.New("threads must be between one and 255")
	}

	return argon2.IDKey(password, salt, d.time, d.memory, uint8(d.threads), uint32(keyLen)), nil
}

type bcryptDeriver struct {
	rounds uint32
}

func (d *bcryptDeriver) Name() string { return "Bcrypt-PBKDF" }

func (d *bcryptDeriver) Derive(password, salt []byte, keyLen int) ([]byte, error) {
	if d.rounds == 0 {
		return nil, errors.New("rounds must be larger than zero")
	}

	key, err := bcrypt_pbkdf.Key(password, salt, int(d.rounds), keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "bcrypt-pbkdf")
	}
	return key, nil
}

// Scrypt memory usage is approximately 128 * N * r bytes. Since p has little
// effect on memory usage, it can be used to tune the running time instead.
type scryptDeriver struct {
	N uint32
	r uint32
	p uint32
}

func (d *scryptDeriver) Name() string { return "Scrypt" }

func (d *scryptDeriver) Derive(password, salt []byte, keyLen int) ([]byte, error) {
	// ensure that all the parameters meet minimum requirements
	if d.N <= 1 {
		return nil, errors.New("N must be larger than one")
	} else if d.r == 0 {
		return nil, errors.New("r must be larger than zero")
	} else if d.p == 0 {
		return nil, errors.New("p must be larger than zero")
	}

	// scrypt checks that N is a power of two and that the parameters don't
	// overflow its limits.
	key, err := scrypt.Key(password, salt, int(d.N), int(d.r), int(d.p), keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt")
	}
	return key, nil
}
