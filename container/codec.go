package container

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/binex-dsk/libpassman/crypt"
	"github.com/pkg/errors"
)

// The magic bytes every envelope starts with.
const Magic = "PD++"

// Defaults for fields that older versions don't store.
const (
	DefaultHashIterations uint8  = 8
	DefaultMemoryUsage    uint16 = 64
	DefaultClearSeconds   uint8  = 15
	DefaultCompress              = true
)

// The most Argon2id memory a header may ask for, in units of 1000 KiB.
const MaxMemoryUsage uint16 = 4096

func checkMemoryUsage(memory uint16) error {
	if memory > MaxMemoryUsage {
		return formatError("memory usage", memory, "more than "+strconv.Itoa(int(MaxMemoryUsage)))
	}
	return nil
}

// Header holds every envelope field that precedes the ciphertext.
type Header struct {
	Version        uint8
	HMAC           uint8
	Hash           uint8
	HashIterations uint8
	HasKeyFile     bool
	Encryption     uint8
	MemoryUsage    uint16
	ClearSeconds   uint8
	Compress       bool
	IV             []byte
	Name           string
	Description    string
}

// An Envelope is a header together with the ciphertext it describes.
type Envelope struct {
	Header
	Ciphertext []byte
}

// Reads big-endian fields one at a time, turning short reads into format
// errors that name the field being read.
type fieldReader struct {
	r *bufio.Reader
}

func readError(field string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatError(field, nil, "truncated")
	}
	return errors.Wrapf(err, "cannot read %s", field)
}

func (f *fieldReader) uint8(field string) (uint8, error) {
	b, err := f.r.ReadByte()
	if err != nil {
		return 0, readError(field, err)
	}
	return b, nil
}

func (f *fieldReader) bool(field string) (bool, error) {
	b, err := f.uint8(field)
	return b != 0, err
}

func (f *fieldReader) uint16(field string) (uint16, error) {
	buf, err := f.bytes(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (f *fieldReader) bytes(field string, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, readError(field, err)
	}
	return buf, nil
}

func (f *fieldReader) line(field string) (string, error) {
	s, err := f.r.ReadString('\n')
	if err != nil {
		return "", readError(field, err)
	}
	return strings.TrimSpace(s), nil
}

// Checks an algorithm index against the size of its table.
func checkIndex(field string, index uint8, count int) error {
	if int(index) >= count {
		return formatError(field, index, "out of range")
	}
	return nil
}

// Read parses an envelope. Any malformed or unsupported header is reported as a
// *FormatError.
func Read(r io.Reader) (*Envelope, error) {
	f := &fieldReader{bufio.NewReader(r)}
	e := &Envelope{Header: Header{
		HashIterations: DefaultHashIterations,
		MemoryUsage:    DefaultMemoryUsage,
		ClearSeconds:   DefaultClearSeconds,
		Compress:       DefaultCompress,
	}}

	magic, err := f.bytes("magic", len(Magic))
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, formatError("magic", string(magic), "should be "+Magic)
	}

	if e.Version, err = f.uint8("version"); err != nil {
		return nil, err
	}
	version, ok := FormatVersions.Find(e.Version)
	if !ok {
		return nil, formatError("version", e.Version, "unsupported")
	}

	if e.HMAC, err = f.uint8("hmac"); err != nil {
		return nil, err
	}
	if err := checkIndex("hmac", e.HMAC, crypt.HMACCount()); err != nil {
		return nil, err
	}

	if version.HasSpacer {
		if _, err := f.uint8("spacer"); err != nil {
			return nil, err
		}
	}

	if e.Hash, err = f.uint8("hash"); err != nil {
		return nil, err
	}
	if err := checkIndex("hash", e.Hash, crypt.HashCount()); err != nil {
		return nil, err
	}

	if e.Hash != crypt.NoHashing {
		if e.HashIterations, err = f.uint8("hash iterations"); err != nil {
			return nil, err
		}
	}

	if e.HasKeyFile, err = f.bool("keyfile flag"); err != nil {
		return nil, err
	}

	if e.Encryption, err = f.uint8("encryption"); err != nil {
		return nil, err
	}
	if err := checkIndex("encryption", e.Encryption, crypt.EncryptionCount()); err != nil {
		return nil, err
	}

	if version.HasExtendedHeader {
		if e.Hash == 0 {
			if e.MemoryUsage, err = f.uint16("memory usage"); err != nil {
				return nil, err
			}
			if err := checkMemoryUsage(e.MemoryUsage); err != nil {
				return nil, err
			}
		}
		if e.ClearSeconds, err = f.uint8("clear seconds"); err != nil {
			return nil, err
		}
		if e.Compress, err = f.bool("compress flag"); err != nil {
			return nil, err
		}
	}

	// The index was checked above, so this can't fail.
	ivSize, _ := crypt.NonceSize(e.Encryption)
	if e.IV, err = f.bytes("iv", ivSize); err != nil {
		return nil, err
	}

	if e.Name, err = f.line("name"); err != nil {
		return nil, err
	}
	if e.Description, err = f.line("description"); err != nil {
		return nil, err
	}

	if e.Ciphertext, err = io.ReadAll(f.r); err != nil {
		return nil, errors.Wrap(err, "cannot read ciphertext")
	}

	return e, nil
}

// Validate checks that the header can be written in its own version's layout.
func (h *Header) Validate() error {
	if _, ok := FormatVersions.Find(h.Version); !ok {
		return formatError("version", h.Version, "unsupported")
	}
	if err := checkIndex("hmac", h.HMAC, crypt.HMACCount()); err != nil {
		return err
	}
	if err := checkIndex("hash", h.Hash, crypt.HashCount()); err != nil {
		return err
	}
	if err := checkIndex("encryption", h.Encryption, crypt.EncryptionCount()); err != nil {
		return err
	}

	if h.Hash == 0 {
		if err := checkMemoryUsage(h.MemoryUsage); err != nil {
			return err
		}
	}

	ivSize, _ := crypt.NonceSize(h.Encryption)
	if len(h.IV) != ivSize {
		return formatError("iv length", len(h.IV), "doesn't match the cipher's nonce length")
	}

	if strings.ContainsAny(h.Name, "\r\n") {
		return formatError("name", nil, "must be a single line")
	}
	if strings.ContainsAny(h.Description, "\r\n") {
		return formatError("description", nil, "must be a single line")
	}

	return nil
}

// Write serializes an envelope in the layout of its header's version.
func Write(w io.Writer, e *Envelope) error {
	if err := e.Validate(); err != nil {
		return err
	}
	version, _ := FormatVersions.Find(e.Version)

	buf := make([]byte, 0, 32+len(e.IV)+len(e.Name)+len(e.Description)+len(e.Ciphertext))
	buf = append(buf, Magic...)
	buf = append(buf, e.Version, e.HMAC)
	if version.HasSpacer {
		buf = append(buf, 0)
	}

	buf = append(buf, e.Hash)
	if e.Hash != crypt.NoHashing {
		buf = append(buf, e.HashIterations)
	}

	buf = append(buf, boolByte(e.HasKeyFile), e.Encryption)

	if version.HasExtendedHeader {
		if e.Hash == 0 {
			buf = binary.BigEndian.AppendUint16(buf, e.MemoryUsage)
		}
		buf = append(buf, e.ClearSeconds, boolByte(e.Compress))
	}

	buf = append(buf, e.IV...)
	buf = append(buf, e.Name+"\n"...)
	buf = append(buf, e.Description+"\n"...)
	buf = append(buf, e.Ciphertext...)

	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, "cannot write envelope")
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
