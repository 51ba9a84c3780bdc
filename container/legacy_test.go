package container

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLegacy(t *testing.T) {
	for _, c := range []struct {
		data   string
		legacy bool
	}{
		{"00112233aabbccdd\nciphertext", true},
		{"AABBCCDD\r\n\x00\x01", true},
		{"  0a0b  \n", true},
		{"00112233", true},
		{"", false},
		{"\nciphertext", false},
		{"PD++\x07", false},
		{"abc\n", false},   // odd length
		{"zz11\n", false},  // not hex
		{"0011 22\n", false},
	} {
		legacy, err := IsLegacy(strings.NewReader(c.data))
		require.NoError(t, err)
		assert.Equal(t, c.legacy, legacy, "%q", c.data)
	}
}

// A current-format envelope is never mistaken for a legacy one.
func TestIsLegacyCurrentFormat(t *testing.T) {
	data := encode(t, testEnvelope())

	legacy, err := IsLegacy(bytes.NewReader(data))
	require.NoError(t, err)
	assert.False(t, legacy)
}

func TestReadAndWriteLegacy(t *testing.T) {
	l := &Legacy{IV: []byte{0xde, 0xad, 0xbe, 0xef}, Ciphertext: []byte("secret\nstuff")}

	var buf bytes.Buffer
	require.NoError(t, WriteLegacy(&buf, l))
	assert.Equal(t, "deadbeef\nsecret\nstuff", buf.String())

	read, err := ReadLegacy(&buf)
	require.NoError(t, err)
	assert.Equal(t, l, read)
}

func TestReadLegacyNotHex(t *testing.T) {
	_, err := ReadLegacy(strings.NewReader("PD++\x07\x00"))
	assert.Equal(t, ErrNotLegacy, err)
}

func TestWriteLegacyEmptyIV(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteLegacy(&buf, &Legacy{}))
}
