package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ugorji/go/codec"
)

func TestNewSortedStringSetEmpty(t *testing.T) {
	s := NewSortedStringSet()
	assert.Equal(t, []string{}, s.Values())
	assert.Equal(t, 0, s.Len())
}

func TestSortedStringSetValuesLexicographicallySorted(t *testing.T) {
	// values should be sorted if added on create
	s1 := NewSortedStringSet("c", "a", "b", "aa")
	assert.Equal(t, []string{"a", "aa", "b", "c"}, s1.Values())

	// and if added post-create
	s2 := NewSortedStringSet()
	s2.Add("c", "a", "b", "aa")
	assert.Equal(t, []string{"a", "aa", "b", "c"}, s2.Values())
}

func TestSortedStringSetAddDuplicate(t *testing.T) {
	s := NewSortedStringSet("foo", "foo")
	s.Add("foo")

	assert.Equal(t, []string{"foo"}, s.Values())
	assert.Equal(t, 1, s.Len())
}

func TestSortedStringSetContains(t *testing.T) {
	s := NewSortedStringSet("github", "email", "bank")

	assert.True(t, s.Contains("github"))
	assert.True(t, s.Contains("bank"))
	assert.False(t, s.Contains("Github"))
	assert.False(t, s.Contains(""))
	assert.False(t, NewSortedStringSet().Contains("github"))
}

func TestSortedStringSetRemove(t *testing.T) {
	s := NewSortedStringSet("a", "b", "c")

	s.Remove("b", "missing")
	assert.Equal(t, []string{"a", "c"}, s.Values())
	assert.False(t, s.Contains("b"))

	s.Remove("a", "c")
	assert.Equal(t, 0, s.Len())
}

// modifying the returned values must not modify the set
func TestSortedStringSetValuesIsACopy(t *testing.T) {
	s := NewSortedStringSet("a", "b")

	values := s.Values()
	values[0] = "z"

	assert.Equal(t, []string{"a", "b"}, s.Values())
}

// the set is a plain slice underneath, so it encodes as a JSON array
func TestSortedStringSetEncodesToJSONAsAnArray(t *testing.T) {
	s := NewSortedStringSet("foo", "bar", "baz")

	var (
		encoded []byte
		jh      codec.JsonHandle
	)
	err := codec.NewEncoderBytes(&encoded, &jh).Encode(s)
	assert.NoError(t, err)
	assert.Equal(t, `["bar","baz","foo"]`, string(encoded))

	var decoded SortedStringSet
	err = codec.NewDecoderBytes(encoded, &jh).Decode(&decoded)
	assert.NoError(t, err)
	assert.Equal(t, SortedStringSet{"bar", "baz", "foo"}, decoded)
}

func TestSecureZero(t *testing.T) {
	a := []byte("secret")
	b := []byte("another secret")

	SecureZero(a, b, nil)

	assert.Equal(t, make([]byte, 6), a)
	assert.Equal(t, make([]byte, 14), b)
}
