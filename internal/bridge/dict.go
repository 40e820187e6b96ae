package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
)

// Dict is the host-side ordered mapping. Go maps have no insertion order,
// so values crossing out of the bridge use Dict for objects.
type Dict struct {
	keys  []string
	items map[string]any
}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{items: make(map[string]any)}
}

// Set stores v under key, keeping the original position of existing keys.
func (d *Dict) Set(key string, v any) {
	if d.items == nil {
		d.items = make(map[string]any)
	}
	if _, exists := d.items[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.items[key] = v
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.items[key]
	return v, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns a copy of the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// All iterates entries in insertion order.
func (d *Dict) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if d == nil {
			return
		}
		for _, k := range d.keys {
			if !yield(k, d.items[k]) {
				return
			}
		}
	}
}

// MarshalJSON implements json.Marshaler in insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	i := 0
	for k, v := range d.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
