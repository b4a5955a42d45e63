package config

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Config is a concurrency-safe key-path store over a plain mapping.
type Config struct {
	data map[string]any
	mu   sync.RWMutex
}

// New creates a store over data. The mapping is cloned.
func New(data map[string]any) *Config {
	if data == nil {
		data = map[string]any{}
	}
	return &Config{data: Clone(data)}
}

// Get returns the value at key. An empty key returns the whole mapping.
// Unknown keys and non-mapping intermediates yield nil.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if key == "" {
		return Clone(c.data)
	}
	return lookup(c.data, key)
}

// Has reports whether key resolves to a value.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	node := any(c.data)
	for seg := range strings.SplitSeq(key, ".") {
		m, ok := asMap(node)
		if !ok {
			return false
		}
		if node, ok = m[seg]; !ok {
			return false
		}
	}
	return true
}

// Set stores value at key, creating intermediate mappings as needed.
// Intermediates that are not mappings are replaced.
func (c *Config) Set(key string, value any) error {
	segments := strings.Split(key, ".")
	for _, seg := range segments {
		if seg == "" {
			return ErrInvalidKey
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.data
	for _, seg := range segments[:len(segments)-1] {
		next, ok := asMap(node[seg])
		if !ok {
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
	return nil
}

// All returns a deep copy of the stored mapping.
func (c *Config) All() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clone(c.data)
}

// String returns the value at key converted to a string.
func (c *Config) String(key string) string {
	return cast.ToString(c.Get(key))
}

// StringOr returns the string at key, or def when it is missing or empty.
func (c *Config) StringOr(key, def string) string {
	if s := c.String(key); s != "" {
		return s
	}
	return def
}

// Int returns the value at key converted to an int.
func (c *Config) Int(key string) int {
	return cast.ToInt(c.Get(key))
}

// Bool returns the value at key converted to a bool.
func (c *Config) Bool(key string) bool {
	return cast.ToBool(c.Get(key))
}

// Strings returns the value at key converted to a string slice.
func (c *Config) Strings(key string) []string {
	return cast.ToStringSlice(c.Get(key))
}

// Map returns the mapping at key, or an empty mapping.
func (c *Config) Map(key string) map[string]any {
	m, err := cast.ToStringMapE(c.Get(key))
	if err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// Duration returns the value at key as a duration. Plain numbers are
// milliseconds; strings are parsed as Go durations.
func (c *Config) Duration(key string) time.Duration {
	return ToDuration(c.Get(key))
}

// ToDuration converts v to a duration. Plain numbers are milliseconds.
func ToDuration(v any) time.Duration {
	switch v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return time.Duration(cast.ToFloat64(v) * float64(time.Millisecond))
	case nil:
		return 0
	}
	return cast.ToDuration(v)
}

func lookup(data map[string]any, key string) any {
	node := any(data)
	for seg := range strings.SplitSeq(key, ".") {
		m, ok := asMap(node)
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return node
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// Clone deep-copies nested mappings and slices of a mapping.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Keys returns the top-level keys of the store.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.data))
}
