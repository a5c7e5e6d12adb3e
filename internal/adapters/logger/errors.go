package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ErrorEntry is one link of an error chain as shown to the user.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the zerr chain of err. A standard error ends the walk with
// its full text. Metadata of links without a message moves to the next shown link.
func collectErrorEntries(err error) []ErrorEntry {
	var (
		entries []ErrorEntry
		carried map[string]any
	)
	for current := err; current != nil; {
		z, ok := current.(*zerr.Error)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: carried})
			break
		}
		meta := z.Metadata()
		if z.Message() == "" && errors.Unwrap(z) != nil {
			carried = merge(carried, meta)
			current = errors.Unwrap(z)
			continue
		}
		entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: merge(carried, meta)})
		carried = nil
		current = errors.Unwrap(z)
	}
	return entries
}

func merge(a, b map[string]any) map[string]any {
	if a == nil {
		return b
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// formatErrorEntries renders entries as "Error: ..." followed by an indented list of
// causes. Metadata is printed below its message, sorted by key.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, e := range entries {
		msg := strings.Split(e.Message, "\n")
		lead, indent := "    → ", "      "
		if i == 0 {
			lead, indent = "Error: ", "       "
		} else if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, lead+msg[0])
		for _, l := range msg[1:] {
			lines = append(lines, indent+l)
		}

		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, e.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
