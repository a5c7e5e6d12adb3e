package domain

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
	"unique"
)

// GlobSetKey identifies a GlobSet by content. Structurally equal sets have equal keys,
// no matter how or when they were parsed.
type GlobSetKey struct {
	h unique.Handle[string]
}

// GlobSet is an immutable, order-irrelevant, deduplicated set of globs.
// The zero value is the empty set.
type GlobSet struct {
	key   GlobSetKey
	globs []Glob
}

// NewGlobSet canonicalizes the globs (sorted by pattern, duplicates removed) and interns the result.
func NewGlobSet(globs ...Glob) GlobSet {
	if len(globs) == 0 {
		return GlobSet{}
	}
	sorted := slices.Clone(globs)
	slices.SortFunc(sorted, func(a, b Glob) int { return strings.Compare(a.pattern, b.pattern) })
	sorted = slices.CompactFunc(sorted, func(a, b Glob) bool { return a.pattern == b.pattern })

	patterns := make([]string, len(sorted))
	for i, g := range sorted {
		patterns[i] = g.pattern
	}
	return GlobSet{
		key:   GlobSetKey{h: unique.Make(strings.Join(patterns, "\x00"))},
		globs: sorted,
	}
}

// ParseGlobSet parses every pattern and builds the canonical set.
func ParseGlobSet(patterns ...string) (GlobSet, error) {
	var globs []Glob
	for _, p := range patterns {
		parsed, err := ParseGlob(p)
		if err != nil {
			return GlobSet{}, err
		}
		globs = append(globs, parsed...)
	}
	return NewGlobSet(globs...), nil
}

// MustParseGlobSet is like ParseGlobSet but panics on invalid patterns.
func MustParseGlobSet(patterns ...string) GlobSet {
	s, err := ParseGlobSet(patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Key returns the content key of the set.
func (s GlobSet) Key() GlobSetKey {
	return s.key
}

// Equal reports structural equality.
func (s GlobSet) Equal(other GlobSet) bool {
	return s.key == other.key
}

// Len returns the number of distinct globs.
func (s GlobSet) Len() int {
	return len(s.globs)
}

// IsEmpty reports whether the set has no globs.
func (s GlobSet) IsEmpty() bool {
	return len(s.globs) == 0
}

// All iterates the globs in canonical order.
func (s GlobSet) All() iter.Seq[Glob] {
	return slices.Values(s.globs)
}

// Strings returns the patterns in canonical order.
func (s GlobSet) Strings() []string {
	out := make([]string, len(s.globs))
	for i, g := range s.globs {
		out[i] = g.pattern
	}
	return out
}

// String renders the set as a bracketed list.
func (s GlobSet) String() string {
	return "[" + strings.Join(s.Strings(), ", ") + "]"
}

// Match reports whether any glob in the set matches the path.
func (s GlobSet) Match(path string) bool {
	for _, g := range s.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Overlaps reports whether some path could match a glob from each set.
func (s GlobSet) Overlaps(other GlobSet) bool {
	for _, a := range s.globs {
		for _, b := range other.globs {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

// Union returns the canonical set of globs in either set.
func (s GlobSet) Union(other GlobSet) GlobSet {
	switch {
	case other.IsEmpty():
		return s
	case s.IsEmpty():
		return other
	}
	return NewGlobSet(append(slices.Clone(s.globs), other.globs...)...)
}

// Prefixes returns the distinct directory prefixes of the globs, sorted.
func (s GlobSet) Prefixes() []string {
	out := make([]string, 0, len(s.globs))
	for _, g := range s.globs {
		out = append(out, g.Prefix())
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MarshalJSON renders the set as a JSON array of patterns.
func (s GlobSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}
