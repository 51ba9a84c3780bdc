package database

import (
	"github.com/binex-dsk/libpassman/container"
	"github.com/binex-dsk/libpassman/crypt"
	"github.com/pkg/errors"
)

// Config holds the settings of a new database. Opening an existing file
// replaces everything but the path and keyfile with what the file's header
// says.
type Config struct {
	// The format version. Saving always upgrades to the newest one.
	Version uint8 `yaml:"version"`

	// Indices into the algorithm tables of the crypt package.
	HMAC       uint8 `yaml:"hmac"`
	Hash       uint8 `yaml:"hash"`
	Encryption uint8 `yaml:"encryption"`

	HashIterations uint8 `yaml:"hashIterations"`

	// Argon2id memory, in units of 1000 KiB.
	MemoryUsage uint16 `yaml:"memoryUsage"`

	// How long the host should keep copied secrets around. Nothing here
	// enforces it.
	ClearSeconds uint8 `yaml:"clearSeconds"`

	Compress bool `yaml:"compress"`

	// A random IV is generated when this is empty.
	IV []byte `yaml:"-"`

	Path        string `yaml:"path"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// A non-empty path protects the database with a keyfile.
	KeyFile string `yaml:"keyFile"`
}

// DefaultConfig returns the settings passman++ uses for new databases.
func DefaultConfig() Config {
	return Config{
		Version:        container.FormatVersions.Latest().Version,
		HMAC:           0,
		Hash:           0,
		Encryption:     0,
		HashIterations: container.DefaultHashIterations,
		MemoryUsage:    container.DefaultMemoryUsage,
		ClearSeconds:   container.DefaultClearSeconds,
		Compress:       container.DefaultCompress,
		Name:           "None",
		Description:    "None",
	}
}

// Validate checks the config's indices and sizes. It doesn't touch the
// filesystem.
func (c *Config) Validate() error {
	if _, ok := container.FormatVersions.Find(c.Version); !ok {
		versions := container.FormatVersions.All()
		return errors.Errorf("version %d is not between %d and %d", c.Version,
			versions[0].Version, versions[len(versions)-1].Version)
	}
	if int(c.HMAC) >= crypt.HMACCount() {
		return errors.Wrapf(crypt.ErrUnsupportedAlgorithm, "hmac index %d", c.HMAC)
	}
	if int(c.Hash) >= crypt.HashCount() {
		return errors.Wrapf(crypt.ErrUnsupportedAlgorithm, "hash index %d", c.Hash)
	}
	if int(c.Encryption) >= crypt.EncryptionCount() {
		return errors.Wrapf(crypt.ErrUnsupportedAlgorithm, "encryption index %d", c.Encryption)
	}
	if c.Hash != crypt.NoHashing && c.HashIterations == 0 {
		return errors.New("hash iterations must be larger than zero")
	}
	if c.Hash == 0 && c.MemoryUsage == 0 {
		return errors.New("memory usage must be larger than zero")
	}
	if c.Hash == 0 && c.MemoryUsage > container.MaxMemoryUsage {
		return errors.Errorf("memory usage %d is larger than %d", c.MemoryUsage, container.MaxMemoryUsage)
	}

	if c.IV != nil {
		size, _ := crypt.NonceSize(c.Encryption)
		if len(c.IV) != size {
			return errors.Errorf("IV is %d bytes, but %s needs %d", len(c.IV),
				cipherName(c.Encryption), size)
		}
	}
	return nil
}

func cipherName(index uint8) string {
	name, err := crypt.EncryptionName(index)
	if err != nil {
		return "the cipher"
	}
	return name
}
