package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Glob is an immutable, normalized file path pattern relative to the client root.
//
// A "*" matches any run of characters within one path segment, a "**" segment matches
// zero or more whole segments, and "{a,b}" alternatives are expanded by ParseGlob.
type Glob struct {
	pattern string
	nfa     *globNFA
}

// ParseGlob parses a pattern into one Glob per brace alternative.
func ParseGlob(pattern string) ([]Glob, error) {
	expanded, err := expandBraces(pattern)
	if err != nil {
		return nil, zerr.With(err, "glob", pattern)
	}

	globs := make([]Glob, 0, len(expanded))
	seen := make(map[string]struct{}, len(expanded))
	for _, alt := range expanded {
		norm := normalizeGlob(alt)
		if err := validateGlob(norm); err != nil {
			return nil, zerr.With(err, "glob", pattern)
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		globs = append(globs, Glob{pattern: norm, nfa: compileGlob(norm)})
	}
	return globs, nil
}

// String returns the normalized pattern.
func (g Glob) String() string {
	return g.pattern
}

// Match reports whether the slash-separated relative path matches the glob.
func (g Glob) Match(path string) bool {
	if g.nfa == nil {
		return false
	}
	return g.nfa.match(path)
}

// Overlaps reports whether some path could match both globs.
func (g Glob) Overlaps(other Glob) bool {
	if g.nfa == nil || other.nfa == nil {
		return false
	}
	if g.pattern == other.pattern {
		return true
	}
	return g.nfa.intersects(other.nfa)
}

// Prefix returns the longest directory that contains every path the glob can match.
// It is empty when matches can start at the client root.
func (g Glob) Prefix() string {
	segs := strings.Split(g.pattern, "/")
	n := 0
	for n < len(segs)-1 && !strings.Contains(segs[n], "*") {
		n++
	}
	return strings.Join(segs[:n], "/")
}

// IsLiteral reports whether the glob matches exactly one path.
func (g Glob) IsLiteral() bool {
	return !strings.Contains(g.pattern, "*")
}

func expandBraces(s string) ([]string, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		if strings.IndexByte(s, '}') >= 0 {
			return nil, zerr.Wrap(ErrInvalidGlob, "unbalanced '}'")
		}
		return []string{s}, nil
	}
	if strings.IndexByte(s[:open], '}') >= 0 {
		return nil, zerr.Wrap(ErrInvalidGlob, "unbalanced '}'")
	}

	var alts []string
	depth, start, end := 0, open+1, -1
scan:
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				alts = append(alts, s[start:i])
				end = i
				break scan
			}
		case ',':
			if depth == 1 {
				alts = append(alts, s[start:i])
				start = i + 1
			}
		}
	}
	if end < 0 {
		return nil, zerr.Wrap(ErrInvalidGlob, "unbalanced '{'")
	}

	prefix, suffix := s[:open], s[end+1:]
	var out []string
	for _, alt := range alts {
		expanded, err := expandBraces(prefix + alt + suffix)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func normalizeGlob(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, seg := range segs {
		if seg == "**" && len(out) > 0 && out[len(out)-1] == "**" {
			continue
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}

func validateGlob(p string) error {
	if p == "" {
		return zerr.Wrap(ErrInvalidGlob, "empty pattern")
	}
	if strings.HasPrefix(p, "/") {
		return zerr.Wrap(ErrInvalidGlob, "pattern must be relative")
	}
	for _, seg := range strings.Split(p, "/") {
		switch {
		case seg == "." || seg == "..":
			return zerr.Wrap(ErrInvalidGlob, "pattern must not contain '.' or '..' segments")
		case seg != "**" && strings.Contains(seg, "**"):
			return zerr.Wrap(ErrInvalidGlob, "'**' must be a whole path segment")
		}
	}
	return nil
}
