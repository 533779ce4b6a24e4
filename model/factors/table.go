package factors

import (
	"maps"
	"strings"
)

// Table maps a category (transport mode, material type) to an emission factor.
type Table map[string]float64

// Get returns the factor of key. Unknown keys resolve to the factor of
// fallbackKey and, when that one is missing too, to literal.
func (t Table) Get(key, fallbackKey string, literal float64) float64 {
	if factor, found := t[Key(key)]; found {
		return factor
	}
	if factor, found := t[fallbackKey]; found {
		return factor
	}
	return literal
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	cloned := make(Table, len(t))
	maps.Copy(cloned, t)
	return cloned
}

// Merge adds or replaces every factor of from, keys lower-cased.
func (t Table) Merge(from map[string]float64) {
	for k, v := range from {
		t[Key(k)] = v
	}
}

// Key normalises a category name.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
