package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFormatVersionsShouldPanicWithoutArguments(t *testing.T) {
	assert.Panics(t, func() {
		newFormatVersions()
	}, "Should panic if given no arguments")
}

func TestNewFormatVersionsShouldPanicWhenGivenDuplicateVersionNumbers(t *testing.T) {
	assert.Panics(t, func() {
		_ = newFormatVersions(
			FormatVersion{Version: 1},
			FormatVersion{Version: 1},
		)
	}, "Should panic if given duplicate version numbers")
}

func TestModifyingARecordShouldNotAffectTheRegistry(t *testing.T) {
	r := FormatVersion{Version: 1}
	versions := newFormatVersions(r)

	r.Version = 2
	assert.Equal(t, uint8(1), versions.All()[0].Version)
}

func TestModifyingTheVersionsListShouldNotModifyTheRegistry(t *testing.T) {
	versions := newFormatVersions(FormatVersion{Version: 1})

	all := versions.All()
	all[0].Version = 2

	assert.Equal(t, uint8(1), versions.All()[0].Version)
	found, ok := versions.Find(1)
	assert.True(t, ok)
	assert.Equal(t, uint8(1), found.Version)
}

func TestVersionsShouldNotBeReordered(t *testing.T) {
	r := FormatVersion{Version: 1}
	s := FormatVersion{Version: 2}
	versions := newFormatVersions(s, r)

	assert.Equal(t, r, versions.Latest())
}

func TestFindVersionShouldReturnNotOkIfNoVersionIsFound(t *testing.T) {
	_, ok := FormatVersions.Find(0)
	assert.False(t, ok)

	_, ok = FormatVersions.Find(MaxVersion + 1)
	assert.False(t, ok)
}

// Every version from 1 to the maximum is readable, and the layout flags change
// exactly where the format did.
func TestFormatVersionsLayouts(t *testing.T) {
	assert.Len(t, FormatVersions.All(), int(MaxVersion))
	assert.Equal(t, MaxVersion, FormatVersions.Latest().Version)

	for v := uint8(1); v <= MaxVersion; v++ {
		record, ok := FormatVersions.Find(v)
		assert.True(t, ok, "version %d", v)
		assert.Equal(t, v < 6, record.HasSpacer, "version %d", v)
		assert.Equal(t, v >= 7, record.HasExtendedHeader, "version %d", v)
	}
}
