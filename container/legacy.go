package container

import (
	"bufio"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// A database in the pre-PD++ format.
type Legacy struct {
	IV         []byte
	Ciphertext []byte
}

// Reads the first line of r and decodes it as a hex IV. A first line that is
// empty or not valid hex isn't an IV.
func readLegacyIV(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "cannot read first line")
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrNotLegacy
	}

	iv, err := hex.DecodeString(line)
	if err != nil {
		return nil, ErrNotLegacy
	}
	return iv, nil
}

// IsLegacy reports whether r holds a legacy database, which is exactly when its
// first line is valid hex.
func IsLegacy(r io.Reader) (bool, error) {
	_, err := readLegacyIV(bufio.NewReader(r))
	if err == ErrNotLegacy {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// ReadLegacy splits a legacy database into its IV and ciphertext.
func ReadLegacy(r io.Reader) (*Legacy, error) {
	br := bufio.NewReader(r)
	iv, err := readLegacyIV(br)
	if err != nil {
		return nil, err
	}

	ciphertext, err := io.ReadAll(br)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read legacy ciphertext")
	}

	return &Legacy{IV: iv, Ciphertext: ciphertext}, nil
}

// WriteLegacy writes a database in the legacy layout.
func WriteLegacy(w io.Writer, l *Legacy) error {
	if len(l.IV) == 0 {
		return errors.New("legacy IV is empty")
	}

	if _, err := io.WriteString(w, hex.EncodeToString(l.IV)+"\n"); err != nil {
		return errors.Wrap(err, "cannot write legacy IV")
	}
	if _, err := w.Write(l.Ciphertext); err != nil {
		return errors.Wrap(err, "cannot write legacy ciphertext")
	}
	return nil
}
