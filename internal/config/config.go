package config

import (
	"fmt"
	"iter"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/fault"
	"github.com/roach88/hostbridge/internal/value"
)

// Config is an ordered string-keyed map of dynamic values used to tune
// engine behavior (splitter parameters, model parameters, search options).
//
// A nil *Config behaves as an empty map for every read method.
type Config struct {
	entries *value.Object
}

// New creates a Config from key/value pairs in order.
func New(pairs ...value.Pair) *Config {
	return &Config{entries: value.NewObject(pairs...)}
}

// Set stores v under key. Existing keys keep their position.
func (c *Config) Set(key string, v value.Value) {
	if c.entries == nil {
		c.entries = value.NewObject()
	}
	c.entries.Set(key, v)
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (value.Value, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

// Len returns the number of entries.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Keys returns the keys in insertion order.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	return c.entries.Keys()
}

// All iterates entries in insertion order.
func (c *Config) All() iter.Seq2[string, value.Value] {
	if c == nil {
		return func(func(string, value.Value) bool) {}
	}
	return c.entries.All()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return New()
	}
	return &Config{entries: c.entries.Clone()}
}

// Equal reports whether two configs hold the same entries in the same order.
func (c *Config) Equal(other *Config) bool {
	return value.Equal(ToValue(c), ToValue(other))
}

// Int returns the integer stored under key, or def when the key is absent.
func (c *Config) Int(key string, def int64) (int64, error) {
	v, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	n, ok := v.(value.Int)
	if !ok {
		return 0, fmt.Errorf("config key %q: want int, got %s", key, v.Kind())
	}
	return int64(n), nil
}

// Float returns the number stored under key, or def when the key is absent.
// Int entries are widened.
func (c *Config) Float(key string, def float64) (float64, error) {
	v, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case value.Float:
		return n.Float64(), nil
	case value.Int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("config key %q: want number, got %s", key, v.Kind())
	}
}

// String returns the string stored under key, or def when the key is absent.
func (c *Config) String(key string, def string) (string, error) {
	v, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	s, ok := v.(value.String)
	if !ok {
		return "", fmt.Errorf("config key %q: want string, got %s", key, v.Kind())
	}
	return string(s), nil
}

// Bool returns the boolean stored under key, or def when the key is absent.
func (c *Config) Bool(key string, def bool) (bool, error) {
	v, ok := c.Get(key)
	if !ok {
		return def, nil
	}
	b, ok := v.(value.Bool)
	if !ok {
		return false, fmt.Errorf("config key %q: want bool, got %s", key, v.Kind())
	}
	return bool(b), nil
}

// ToValue returns the Object form of c. The result shares nothing with c.
func ToValue(c *Config) *value.Object {
	if c == nil || c.entries == nil {
		return value.NewObject()
	}
	return c.entries.Clone()
}

// ToHost returns the host mapping form of c.
func ToHost(c *Config) *bridge.Dict {
	return bridge.ToHost(ToValue(c)).(*bridge.Dict)
}

// FromValue builds a Config from an Object-shaped value. Any other variant
// fails with UNSUPPORTED_TYPE. The input is not retained.
func FromValue(v value.Value) (*Config, error) {
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fault.UnsupportedType([]string{"$"}, fmt.Sprintf("%T", v))
	}
	return &Config{entries: obj.Clone()}, nil
}

// FromHost converts a host mapping (*bridge.Dict or map[string]any) into a
// Config. Element conversion follows bridge.FromHost.
func FromHost(h any) (*Config, error) {
	v, err := bridge.FromHost(h)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}
