package gpu

import (
	"slices"
	"strings"
)

// KeywordSet is an order-independent set of preprocessor keywords. The zero
// value is the empty set. KeywordSet is comparable and is used directly as a
// map key: two sets are equal exactly when they hold the same names.
type KeywordSet struct {
	key string // sorted, deduplicated names joined by a single space
}

// Keywords builds a set from names. Each name is split on whitespace, so
// Keywords("A B") is the set {A, B}; a preprocessor keyword cannot contain a
// space. Empty names are ignored.
func Keywords(names ...string) KeywordSet {
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		sorted = append(sorted, strings.Fields(n)...)
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return KeywordSet{key: strings.Join(sorted, " ")}
}

// Names returns the keywords in sorted order.
func (k KeywordSet) Names() []string {
	if k.key == "" {
		return nil
	}
	return strings.Split(k.key, " ")
}

// Has reports whether name is in the set.
func (k KeywordSet) Has(name string) bool {
	return slices.Contains(k.Names(), name)
}

// With returns a set with name added when on is true.
func (k KeywordSet) With(name string, on bool) KeywordSet {
	if !on {
		return k
	}
	return Keywords(append(k.Names(), name)...)
}

// Len is the number of keywords.
func (k KeywordSet) Len() int {
	return len(k.Names())
}

func (k KeywordSet) String() string {
	return "{" + k.key + "}"
}
