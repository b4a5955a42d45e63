package internal

import (
	"reflect"

	"github.com/spf13/cast"
)

// Scalar is the set of types request params convert to, named types included.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param converts the route param name to T. Unconvertible values give the zero T.
func Param[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Param(name))
	return v
}

// Query converts the query param name to T.
func Query[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Query(name))
	return v
}

// QueryDefault is Query with a fallback for empty and unconvertible values.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	if raw := c.Query(name); raw != "" {
		if v, ok := parseScalar[T](raw); ok {
			return v
		}
	}
	return defaultValue
}

func parseScalar[T Scalar](raw string) (T, bool) {
	var out T
	dst := reflect.ValueOf(&out).Elem()
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return out, false
		}
		dst.SetInt(n)
	case reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return out, false
		}
		dst.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return out, false
		}
		dst.SetBool(b)
	}
	return out, true
}
