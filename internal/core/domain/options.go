package domain

import (
	"bytes"
	"encoding/json"
	"iter"
	"reflect"
)

// Option is a single named value handed opaquely to a tool.
type Option struct {
	Name  string
	Value any
}

// Options is an immutable, order-preserving map of option names to values.
// Values are scalars, []any or nested Options.
type Options struct {
	entries []Option
}

// NewOptions builds an Options map. A repeated name keeps its first position and its last value.
func NewOptions(entries ...Option) Options {
	out := make([]Option, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Name]; ok {
			out[i].Value = e.Value
			continue
		}
		index[e.Name] = len(out)
		out = append(out, e)
	}
	return Options{entries: out}
}

// Len returns the number of options.
func (o Options) Len() int {
	return len(o.entries)
}

// Get returns the value of the named option.
func (o Options) Get(name string) (any, bool) {
	for _, e := range o.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// All iterates options in declaration order.
func (o Options) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, e := range o.entries {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// Names returns the option names in declaration order.
func (o Options) Names() []string {
	names := make([]string, len(o.entries))
	for i, e := range o.entries {
		names[i] = e.Name
	}
	return names
}

// Equal reports deep equality, including order.
func (o Options) Equal(other Options) bool {
	if len(o.entries) != len(other.entries) {
		return false
	}
	for i, e := range o.entries {
		f := other.entries[i]
		if e.Name != f.Name || !optionValueEqual(e.Value, f.Value) {
			return false
		}
	}
	return true
}

func optionValueEqual(a, b any) bool {
	if oa, ok := a.(Options); ok {
		ob, ok := b.(Options)
		return ok && oa.Equal(ob)
	}
	if la, ok := a.([]any); ok {
		lb, ok := b.([]any)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !optionValueEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// MarshalJSON renders the options as a JSON object with keys in declaration order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
