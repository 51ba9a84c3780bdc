package container

import (
	"fmt"
)

// The newest format version, and the one every save writes.
const MaxVersion uint8 = 7

// A simple box to hold the version number and the layout quirks associated with
// a particular version of our format.
type FormatVersion struct {
	Version uint8

	// Whether an unused byte follows the HMAC index.
	HasSpacer bool

	// Whether the memory usage, clear delay, and compression fields are present.
	HasExtendedHeader bool
}

// A container that holds all the available format versions in an immutable
// manner, to prevent any modification of the canonical source list.
type formatVersions struct {
	// An ordered list of format versions, from oldest to newest. The last item in
	// the slice is guaranteed to be the latest version!
	versions []FormatVersion

	// A map of version number to version pointer, to speed lookup.
	versionsByNumber map[uint8]*FormatVersion
}

// Expose the canonical list of readable versions.
// NOTE: We maintain this _here and only here_ to prevent modifying the version
// database, which we want to be immutable for all intents and purposes.
var FormatVersions formatVersions = newFormatVersions(
	FormatVersion{1, true, false},
	FormatVersion{2, true, false},
	FormatVersion{3, true, false},
	FormatVersion{4, true, false},
	FormatVersion{5, true, false},
	FormatVersion{6, false, false},
	FormatVersion{MaxVersion, false, true},
)

// Given a bunch of versions, builds the internal version list and populates the
// lookup map.
func newFormatVersions(records ...FormatVersion) formatVersions {
	if len(records) == 0 {
		panic("Must be called with at least one format version")
	}

	versions := make([]FormatVersion, len(records))
	versionsByNumber := make(map[uint8]*FormatVersion)

	// Populate the preallocated slice and the lookup map. The map points into the
	// slice so both always agree.
	for i, v := range records {
		// Ensure we never have duplicate version numbers.
		if _, ok := versionsByNumber[v.Version]; ok {
			panic(fmt.Sprintf("Can't duplicate version numbers (duplicated: %d)", v.Version))
		}

		versions[i] = v
		versionsByNumber[v.Version] = &versions[i]
	}

	return formatVersions{
		versions,
		versionsByNumber,
	}
}

// Returns a copy of all the internal version records.
func (f *formatVersions) All() []FormatVersion {
	records := make([]FormatVersion, len(f.versions))
	copy(records, f.versions)
	return records
}

// Get a copy of the latest available format version.
func (f *formatVersions) Latest() FormatVersion {
	return f.versions[len(f.versions)-1]
}

// Get a copy of the given version's record, returning "not ok" if a record with
// the given version number couldn't be found.
func (f *formatVersions) Find(requestedVersion uint8) (FormatVersion, bool) {
	record, ok := f.versionsByNumber[requestedVersion]
	if !ok {
		return FormatVersion{}, false
	}

	return *record, true
}
