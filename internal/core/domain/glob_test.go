package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func mustGlob(t *testing.T, pattern string) domain.Glob {
	t.Helper()
	globs, err := domain.ParseGlob(pattern)
	require.NoError(t, err)
	require.Len(t, globs, 1)
	return globs[0]
}

func TestParseGlob_Normalization(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"src/*.c", []string{"src/*.c"}},
		{"a//b/", []string{"a/b"}},
		{"**/**/x", []string{"**/x"}},
		{"src/{a,b}.c", []string{"src/a.c", "src/b.c"}},
		{"{a,b{c,d}}", []string{"a", "bc", "bd"}},
		{"{x,x}/y", []string{"x/y"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			globs, err := domain.ParseGlob(tt.input)
			require.NoError(t, err)

			got := make([]string, len(globs))
			for i, g := range globs {
				got[i] = g.String()
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseGlob_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Absolute", "/etc/passwd"},
		{"DotDot", "a/../b"},
		{"Dot", "./a"},
		{"PartialDoubleStar", "a**"},
		{"UnclosedBrace", "{a,b"},
		{"StrayBrace", "a}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseGlob(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidGlob), "expected ErrInvalidGlob, got %v", err)
		})
	}
}

func TestGlob_Match(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"src/*.c", "src/a.c", true},
		{"src/*.c", "src/x/a.c", false},
		{"src/*.c", "src/a.h", false},
		{"*", "foo", true},
		{"*", "foo/bar", false},
		{"**", "foo/bar/baz", true},
		{"**/*.go", "main.go", true},
		{"**/*.go", "a/b/main.go", true},
		{"**/*.go", "a/b/main.rs", false},
		{"gen/**", "gen", true},
		{"gen/**", "gen/a/b", true},
		{"gen/**", "generated/x", false},
		{"a/**/b", "a/b", true},
		{"a/**/b", "a/x/y/b", true},
		{"a/**/b", "a/xb", false},
		{"a*b", "axxb", true},
		{"a*b", "abb", true},
		{"out/result.txt", "out/result.txt", true},
		{"out/result.txt", "out/result.txt.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, mustGlob(t, tt.pattern).Match(tt.path))
		})
	}
}

func TestGlob_Overlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"gen/*.o", "gen/*.o", true},
		{"gen/*.o", "gen/**", true},
		{"gen/*.o", "src/*.c", false},
		{"**/*.c", "src/main.c", true},
		{"*.c", "*.h", false},
		{"a/*", "a/b/c", false},
		{"a/**", "a/b/c", true},
		{"*/x", "y/*", true},
		{"a/**/z", "**/b/z", true},
		{"bin/app", "bin/*.o", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"~"+tt.b, func(t *testing.T) {
			a, b := mustGlob(t, tt.a), mustGlob(t, tt.b)
			assert.Equal(t, tt.want, a.Overlaps(b))
			assert.Equal(t, tt.want, b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func TestGlob_Prefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"src/lib/*.c", "src/lib"},
		{"**/*.go", ""},
		{"gen/**", "gen"},
		{"out/result.txt", "out"},
		{"a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, mustGlob(t, tt.pattern).Prefix())
		})
	}
}

func TestGlob_IsLiteral(t *testing.T) {
	assert.True(t, mustGlob(t, "out/result.txt").IsLiteral())
	assert.False(t, mustGlob(t, "out/*.txt").IsLiteral())
}

func TestGlob_ZeroValue(t *testing.T) {
	var g domain.Glob
	assert.False(t, g.Match("anything"))
	assert.False(t, g.Overlaps(mustGlob(t, "**")))
}
