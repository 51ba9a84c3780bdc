package util

import (
	"sort"
)

// SortedStringSet is a set of strings kept in lexicographic order. It's a plain
// []string underneath, so it encodes like one with the codec package.
type SortedStringSet []string

func NewSortedStringSet(items ...string) *SortedStringSet {
	set := SortedStringSet(make([]string, 0, len(items)))
	set.Add(items...)
	return &set
}

// Returns the index at which item is, or would be inserted, and whether it's
// already present.
func (s *SortedStringSet) search(item string) (int, bool) {
	i := sort.SearchStrings(*s, item)
	return i, i < len(*s) && (*s)[i] == item
}

// Values returns a copy of the set's values, sorted lexicographically.
func (s *SortedStringSet) Values() []string {
	values := make([]string, s.Len())
	copy(values, *s)
	return values
}

func (s *SortedStringSet) Len() int {
	return len(*s)
}

// Contains reports whether item is in the set.
func (s *SortedStringSet) Contains(item string) bool {
	_, ok := s.search(item)
	return ok
}

// Add the given strings to the set. Strings already in the set are ignored.
func (s *SortedStringSet) Add(items ...string) {
	for _, item := range items {
		i, ok := s.search(item)
		if ok {
			continue
		}

		// grow by one, shift the tail right, and drop the item into the gap
		*s = append(*s, "")
		copy((*s)[i+1:], (*s)[i:])
		(*s)[i] = item
	}
}

// Remove the given strings from the set. Strings not in the set are ignored.
func (s *SortedStringSet) Remove(items ...string) {
	for _, item := range items {
		if i, ok := s.search(item); ok {
			// removing doesn't disturb the order of what's left
			*s = append((*s)[:i], (*s)[i+1:]...)
		}
	}
}
