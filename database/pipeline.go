package database

import (
	"bytes"
	"crypto/cipher"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/binex-dsk/libpassman/container"
	"github.com/binex-dsk/libpassman/crypt"
	"github.com/binex-dsk/libpassman/util"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// The outcome of Verify. A wrong password or keyfile is a result, not an error.
type VerifyResult int

const (
	VerifyInvalidPassword VerifyResult = 0
	VerifyOK              VerifyResult = 1
	VerifyInvalidKeyFile  VerifyResult = 3
)

// The outcome of Open.
type OpenResult int

const (
	OpenFailed         OpenResult = 0
	OpenOK             OpenResult = 1
	OpenNeedsMigration OpenResult = 2
)

// The outcome of SaveAs.
type SaveResult int

const (
	SaveFailed     SaveResult = 0
	SaveOK         SaveResult = 1
	SaveEmptyPath  SaveResult = 3
	SaveCannotOpen SaveResult = 17
)

// The outcome of Parse.
type ParseResult int

const (
	ParseFailed ParseResult = iota
	ParseCurrent
	ParseLegacy
)

// Options for Decrypt.
type Option uint

const (
	// Replay the decrypted statement log and load its entries.
	OptionOpen Option = 1 << iota
)

// The description given to databases migrated from the legacy format.
const MigratedDescription = "Converted from old database format."

var (
	// Returned when encrypting before a password has been set or verified.
	ErrNoKey = errors.New("no password has been set")

	// Returned by Verify before anything has been parsed or encrypted.
	ErrNoCiphertext = errors.New("no ciphertext to verify")

	ErrEmptyPath = errors.New("empty path")
)

// A MigrationError means a legacy database couldn't be read or replayed. A
// wrong password is not a MigrationError.
type MigrationError struct {
	Path string
	Err  error
}

func (e *MigrationError) Error() string {
	return "cannot migrate " + e.Path + ": " + e.Err.Error()
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// IsOld reports whether the file at the database's path is in the legacy
// format.
func (d *Database) IsOld() (bool, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return false, errors.Wrapf(err, "cannot open %q", d.Path)
	}
	defer f.Close()

	return container.IsLegacy(f)
}

// Parse reads the header of the file at the database's path, replacing the
// database's settings and ciphertext with the file's. Legacy files are only
// detected, not read.
func (d *Database) Parse() (ParseResult, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return ParseFailed, errors.Wrapf(err, "cannot read %q", d.Path)
	}

	legacy, err := container.IsLegacy(bytes.NewReader(data))
	if err != nil {
		return ParseFailed, err
	}
	if legacy {
		return ParseLegacy, nil
	}

	e, err := container.Read(bytes.NewReader(data))
	if err != nil {
		return ParseFailed, errors.Wrapf(err, "cannot parse %q", d.Path)
	}

	d.Version = e.Version
	d.HMAC = e.HMAC
	d.Hash = e.Hash
	d.HashIterations = e.HashIterations
	d.KeyFile = e.HasKeyFile
	d.Encryption = e.Encryption
	d.MemoryUsage = e.MemoryUsage
	d.ClearSeconds = e.ClearSeconds
	d.Compress = e.Compress
	d.IV = e.IV
	d.Name = e.Name
	d.Description = e.Description
	d.Ciphertext = e.Ciphertext

	klog.V(2).Infof("parsed %q: version %d, %d bytes of ciphertext", d.Path, d.Version, len(d.Ciphertext))
	return ParseCurrent, nil
}

// Derives the key that wraps the outer layer of a keyfile-protected database.
func keyFileKey(kdf *crypt.KDF) ([]byte, error) {
	keyData, err := kdf.ReadKeyFile()
	if err != nil {
		return nil, err
	}
	defer util.SecureZero(keyData)

	return kdf.Transform(keyData, nil)
}

// Builds the configured cipher for a key, making sure the IV fits it.
func (d *Database) cipherFor(kdf *crypt.KDF, key []byte) (cipher.AEAD, error) {
	c, err := kdf.ResolveCipher(key, crypt.Configured)
	if err != nil {
		return nil, err
	}
	if len(d.IV) != c.NonceSize() {
		return nil, errors.Errorf("IV is %d bytes, but the cipher needs %d", len(d.IV), c.NonceSize())
	}
	return c, nil
}

// ProduceCiphertext rebuilds the statement log from the entries, compresses it
// if enabled, and encrypts it under the cached key and the IV. A keyfile
// protected database is then encrypted a second time, under a key derived from
// the keyfile and the same IV.
func (d *Database) ProduceCiphertext() ([]byte, error) {
	if !d.HasKey() {
		return nil, ErrNoKey
	}

	kdf, err := d.KDF()
	if err != nil {
		return nil, err
	}

	inner, err := d.cipherFor(kdf, d.key)
	if err != nil {
		return nil, err
	}

	if err := d.SaveStatementLog(); err != nil {
		return nil, err
	}

	payload := d.statementLog
	if d.Compress {
		if payload, err = crypt.Compress(payload); err != nil {
			return nil, err
		}
	}

	ciphertext := inner.Seal(nil, d.IV, payload, nil)

	if d.KeyFile {
		key, err := keyFileKey(kdf)
		if err != nil {
			return nil, err
		}
		defer util.SecureZero(key)

		outer, err := d.cipherFor(kdf, key)
		if err != nil {
			return nil, err
		}
		ciphertext = outer.Seal(nil, d.IV, ciphertext, nil)
	}

	return ciphertext, nil
}

// Encrypt writes the database to its path in the newest format version.
func (d *Database) Encrypt() error {
	if d.Path == "" {
		return ErrEmptyPath
	}

	ciphertext, err := d.ProduceCiphertext()
	if err != nil {
		return err
	}

	latest := container.FormatVersions.Latest().Version
	e := &container.Envelope{
		Header: container.Header{
			Version:        latest,
			HMAC:           d.HMAC,
			Hash:           d.Hash,
			HashIterations: d.HashIterations,
			HasKeyFile:     d.KeyFile,
			Encryption:     d.Encryption,
			MemoryUsage:    d.MemoryUsage,
			ClearSeconds:   d.ClearSeconds,
			Compress:       d.Compress,
			IV:             d.IV,
			Name:           d.Name,
			Description:    d.Description,
		},
		Ciphertext: ciphertext,
	}

	// Build the whole file first so a bad header never truncates the old one.
	var buf bytes.Buffer
	if err := container.Write(&buf, e); err != nil {
		return err
	}
	if err := os.WriteFile(d.Path, buf.Bytes(), 0600); err != nil {
		return errors.Wrapf(err, "cannot write %q", d.Path)
	}

	d.Version = latest
	d.Ciphertext = ciphertext
	d.Modified = false

	klog.V(2).Infof("saved %d entries to %q", len(d.entries), d.Path)
	return nil
}

// Save writes the database to its path.
func (d *Database) Save() error {
	return d.Encrypt()
}

// SaveAs writes the database to a new path, which becomes its path.
func (d *Database) SaveAs(path string) (SaveResult, error) {
	if path == "" {
		return SaveEmptyPath, ErrEmptyPath
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return SaveCannotOpen, errors.Wrapf(err, "cannot open %q for writing", path)
	}
	f.Close()

	d.Path = path
	if err := d.Save(); err != nil {
		return SaveFailed, err
	}
	return SaveOK, nil
}

// Verify checks a password against the database's ciphertext, which must have
// been parsed or encrypted already. On success, the derived key and decrypted
// statement log are cached; on failure, nothing changes. Legacy files are
// migrated instead.
func (d *Database) Verify(password string) (VerifyResult, error) {
	if d.Path != "" {
		old, err := d.IsOld()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return VerifyInvalidPassword, err
		}
		if old {
			ok, err := d.Migrate(password)
			if err != nil || !ok {
				return VerifyInvalidPassword, err
			}
			return VerifyOK, nil
		}
	}

	if d.Ciphertext == nil {
		return VerifyInvalidPassword, ErrNoCiphertext
	}

	kdf, err := d.KDF()
	if err != nil {
		return VerifyInvalidPassword, err
	}

	candidate, err := kdf.Transform([]byte(password), nil)
	if err != nil {
		return VerifyInvalidPassword, err
	}

	data := d.Ciphertext
	if d.KeyFile {
		key, err := keyFileKey(kdf)
		if err != nil {
			return VerifyInvalidPassword, err
		}
		defer util.SecureZero(key)

		outer, err := d.cipherFor(kdf, key)
		if err != nil {
			return VerifyInvalidPassword, err
		}
		if data, err = outer.Open(nil, d.IV, data, nil); err != nil {
			util.SecureZero(candidate)
			return VerifyInvalidKeyFile, nil
		}
	}

	inner, err := d.cipherFor(kdf, candidate)
	if err != nil {
		return VerifyInvalidPassword, err
	}

	plaintext, err := inner.Open(nil, d.IV, data, nil)
	if err == nil && d.Compress {
		plaintext, err = crypt.Decompress(plaintext)
	}
	if err != nil {
		util.SecureZero(candidate)
		return VerifyInvalidPassword, nil
	}

	util.SecureZero(d.key, d.statementLog)
	d.key = candidate
	d.statementLog = plaintext
	return VerifyOK, nil
}

// Decrypt verifies the password and, with OptionOpen, replays the statement
// log and loads its entries. A non-empty keyFile replaces the keyfile path of
// a keyfile-protected database.
func (d *Database) Decrypt(opts Option, password, keyFile string) (bool, error) {
	if d.KeyFile && keyFile != "" {
		d.KeyFilePath = keyFile
	}

	result, err := d.Verify(password)
	if err != nil {
		return false, err
	}

	switch result {
	case VerifyOK:
		if opts&OptionOpen != 0 {
			if _, err := d.replay(d.statementLog); err != nil {
				return false, err
			}
			if err := d.Load(); err != nil {
				return false, err
			}
		}
		return true, nil
	case VerifyInvalidKeyFile:
		klog.Warning("keyfile is invalid")
	default:
		klog.Warning("password is incorrect; if this keeps happening, the database may be corrupt")
	}
	return false, nil
}

// Open parses the file at the database's path and decrypts it. Legacy files
// aren't decrypted; they report OpenNeedsMigration so the caller can Migrate.
func (d *Database) Open(password, keyFile string) (OpenResult, error) {
	if _, err := os.Stat(d.Path); err != nil {
		return OpenFailed, errors.Wrapf(err, "cannot open %q", d.Path)
	}

	result, err := d.Parse()
	if err != nil {
		return OpenFailed, err
	}
	if result == ParseLegacy {
		return OpenNeedsMigration, nil
	}

	ok, err := d.Decrypt(OptionOpen, password, keyFile)
	if err != nil {
		return OpenFailed, err
	}
	if !ok {
		return OpenFailed, nil
	}
	return OpenOK, nil
}

// Migrate decrypts a legacy database, loads its entries, and rewrites it in
// place in the newest format, under a fresh IV and a key derived with the
// database's current settings. A wrong password returns false without an
// error. Statements that fail to replay are logged and skipped.
func (d *Database) Migrate(password string) (bool, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return false, &MigrationError{d.Path, err}
	}

	legacy, err := container.ReadLegacy(bytes.NewReader(data))
	if err != nil {
		return false, &MigrationError{d.Path, err}
	}

	plaintext, err := crypt.OpenLegacy(password, legacy.IV, legacy.Ciphertext)
	if err != nil {
		klog.Warningf("cannot decrypt legacy database %q: %v", d.Path, err)
		return false, nil
	}
	defer util.SecureZero(plaintext)

	d.Name = strings.SplitN(filepath.Base(d.Path), ".", 2)[0]
	d.Description = MigratedDescription

	skipped, err := d.replay(plaintext)
	if err != nil {
		return false, &MigrationError{d.Path, err}
	}
	if skipped > 0 {
		klog.Warningf("%d statements of %q could not be migrated", skipped, d.Path)
	}

	if err := d.load(true); err != nil {
		return false, &MigrationError{d.Path, err}
	}

	if err := d.Rekey(password); err != nil {
		return false, err
	}
	if err := d.Encrypt(); err != nil {
		return false, err
	}

	klog.Infof("migrated %q to format version %d", d.Path, d.Version)
	return true, nil
}
