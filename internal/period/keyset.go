package period

import (
	"slices"
	"strings"

	"github.com/tartampluch/go-payslip/internal/payslip"
)

// KeySet is a set of month keys.
type KeySet map[payslip.MonthKey]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...payslip.MonthKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k.
func (s KeySet) Add(k payslip.MonthKey) {
	s[k] = struct{}{}
}

// Has reports whether k is present. A nil set contains nothing.
func (s KeySet) Has(k payslip.MonthKey) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys.
func (s KeySet) Len() int {
	return len(s)
}

// Union returns a new set holding the keys of both sets.
func (s KeySet) Union(other KeySet) KeySet {
	out := make(KeySet, len(s)+len(other))
	for k := range s {
		out.Add(k)
	}
	for k := range other {
		out.Add(k)
	}
	return out
}

// ForYear returns the keys whose label fragment names the Gregorian year.
func (s KeySet) ForYear(year int) KeySet {
	marker := payslip.YearMarker(year)
	out := make(KeySet)
	for k := range s {
		if strings.Contains(string(k), marker) {
			out.Add(k)
		}
	}
	return out
}

// Sorted returns the keys in chronological order.
func (s KeySet) Sorted() []payslip.MonthKey {
	keys := make([]payslip.MonthKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	// Zero-padded era-year and month make lexical order chronological.
	slices.Sort(keys)
	return keys
}
