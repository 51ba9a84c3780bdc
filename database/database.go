package database

import (
	"time"

	"github.com/binex-dsk/libpassman/container"
	"github.com/binex-dsk/libpassman/crypt"
	"github.com/binex-dsk/libpassman/util"
	"github.com/pkg/errors"
)

// A Database is a passman++ database: its header settings, the secrets needed
// to encrypt it, its plaintext statement log, and the entries derived from it.
// The statement log is authoritative; entries are rebuilt from it on load and
// written back to it on save.
type Database struct {
	Version        uint8
	HMAC           uint8
	Hash           uint8
	HashIterations uint8
	Encryption     uint8
	MemoryUsage    uint16
	ClearSeconds   uint8
	Compress       bool
	IV             []byte

	// The ciphertext last read from or written to disk.
	Ciphertext []byte

	Name        string
	Description string
	Path        string

	// Whether the database is protected by a keyfile, and where to find it.
	KeyFile     bool
	KeyFilePath string

	// Set whenever the entries change, and cleared on save.
	Modified bool

	key          []byte
	statementLog []byte
	entries      []*Entry
	store        Store

	// Reused across benchmarks so the per-round cost is only measured once
	// for the same settings.
	bench         *crypt.KDF
	benchSettings benchmarkSettings
}

// The settings a benchmark result depends on.
type benchmarkSettings struct {
	hmac, hash, encryption, iterations uint8
	memory                             uint16
}

// New creates a database from a validated config, backed by the given store.
func New(cfg Config, store Store) (*Database, error) {
	if store == nil {
		return nil, errors.New("a store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	// Iterations aren't stored for the no-hashing sentinel, so a reopened
	// database always sees the default.
	if cfg.Hash == crypt.NoHashing {
		cfg.HashIterations = container.DefaultHashIterations
	}

	iv := append([]byte(nil), cfg.IV...)
	if len(iv) == 0 {
		var err error
		if iv, err = crypt.NewNonce(cfg.Encryption); err != nil {
			return nil, err
		}
	}

	return &Database{
		Version:        cfg.Version,
		HMAC:           cfg.HMAC,
		Hash:           cfg.Hash,
		HashIterations: cfg.HashIterations,
		Encryption:     cfg.Encryption,
		MemoryUsage:    cfg.MemoryUsage,
		ClearSeconds:   cfg.ClearSeconds,
		Compress:       cfg.Compress,
		IV:             iv,
		Name:           cfg.Name,
		Description:    cfg.Description,
		Path:           cfg.Path,
		KeyFile:        cfg.KeyFile != "",
		KeyFilePath:    cfg.KeyFile,
		store:          store,
	}, nil
}

// KDF builds the key derivation function described by the database's settings,
// seeded with its IV.
func (d *Database) KDF() (*crypt.KDF, error) {
	i1, i2, i3 := crypt.HashParams(d.Hash, d.HashIterations, d.MemoryUsage)
	return crypt.New(crypt.Params{
		HMAC:        d.HMAC,
		Hash:        d.Hash,
		Encryption:  d.Encryption,
		I1:          i1,
		I2:          i2,
		I3:          i3,
		Seed:        d.IV,
		KeyFilePath: d.KeyFilePath,
	})
}

// Benchmark returns the hash iterations that would take roughly the target
// duration with the database's current settings. Longer targets never give
// fewer iterations until those settings change.
func (d *Database) Benchmark(target time.Duration) (int, error) {
	settings := benchmarkSettings{d.HMAC, d.Hash, d.Encryption, d.HashIterations, d.MemoryUsage}
	if d.bench == nil || d.benchSettings != settings {
		kdf, err := d.KDF()
		if err != nil {
			return 0, err
		}
		d.bench, d.benchSettings = kdf, settings
	}
	return d.bench.Benchmark(target)
}

// SetPassword derives and caches the key the database is encrypted with.
func (d *Database) SetPassword(password string) error {
	kdf, err := d.KDF()
	if err != nil {
		return err
	}

	key, err := kdf.Transform([]byte(password), nil)
	if err != nil {
		return err
	}

	util.SecureZero(d.key)
	d.key = key
	return nil
}

// Rekey generates a fresh IV and derives a new key from the password, so the
// next save doesn't reuse a nonce under the old key.
func (d *Database) Rekey(password string) error {
	iv, err := crypt.NewNonce(d.Encryption)
	if err != nil {
		return err
	}

	old := d.IV
	d.IV = iv
	if err := d.SetPassword(password); err != nil {
		d.IV = old
		return err
	}
	return nil
}

// HasKey reports whether a key has been derived or verified.
func (d *Database) HasKey() bool {
	return len(d.key) > 0
}

// StatementLog returns a copy of the decrypted statement log.
func (d *Database) StatementLog() string {
	return string(d.statementLog)
}

// Entries returns the database's entries in order.
func (d *Database) Entries() []*Entry {
	entries := make([]*Entry, len(d.entries))
	copy(entries, d.entries)
	return entries
}

func (d *Database) Len() int {
	return len(d.entries)
}

func (d *Database) AddEntry(e *Entry) {
	d.entries = append(d.entries, e)
	d.Modified = true
}

// RemoveEntry removes the given entry, reporting whether it was found.
func (d *Database) RemoveEntry(e *Entry) bool {
	for i, candidate := range d.entries {
		if candidate == e {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			d.Modified = true
			return true
		}
	}
	return false
}

func (d *Database) SetEntries(entries []*Entry) {
	d.entries = append([]*Entry(nil), entries...)
	d.Modified = true
}

// EntryNamed returns the first entry with exactly the given name.
func (d *Database) EntryNamed(name string) (*Entry, bool) {
	for _, e := range d.entries {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// EntryWithPassword returns the first entry whose password field is exactly the
// given password.
func (d *Database) EntryWithPassword(password string) (*Entry, bool) {
	for _, e := range d.entries {
		if e.Password() == password {
			return e, true
		}
	}
	return nil, false
}

// ClearAfter is how long the host should keep secrets copied from the
// database, such as a password on the clipboard.
func (d *Database) ClearAfter() time.Duration {
	return time.Duration(d.ClearSeconds) * time.Second
}

// Wipe zeroes the cached key, the statement log, and every password and
// one-time password value. The database needs to be decrypted again before it
// can be saved.
func (d *Database) Wipe() {
	util.SecureZero(d.key, d.statementLog)
	d.key = nil
	d.statementLog = nil

	for _, e := range d.entries {
		e.wipe()
	}
}
