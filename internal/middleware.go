package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync/atomic"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/router"
)

// MiddlewareFactory builds a middleware from its options.
type MiddlewareFactory func(opts map[string]any, app *App) (Middleware, error)

// OptionsFunc resolves middleware options before the server starts.
type OptionsFunc func(ctx context.Context, app *App) (map[string]any, error)

// MiddlewareSpec is one entry of the middleware list.
type MiddlewareSpec struct {
	// Factory builds the middleware. When nil, Handle names a registered factory.
	Factory MiddlewareFactory
	// OptionsFunc replaces Options when set. The middleware is built once
	// the options resolve; until then requests skip it.
	OptionsFunc OptionsFunc
	Options     map[string]any
	Handle      string
	// Match and Ignore are path patterns restricting the requests the
	// middleware sees. Other requests skip it.
	Match    string
	Ignore   string
	Disabled bool
}

// Use returns a MiddlewareSpec for a registered middleware.
func Use(handle string, opts map[string]any) MiddlewareSpec {
	return MiddlewareSpec{Handle: handle, Options: opts}
}

// ParseMiddleware decodes a middleware list. Items are handle names or
// mappings with handle, options, enable, match and ignore keys.
func ParseMiddleware(raw any) ([]MiddlewareSpec, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidMiddleware, raw)
	}

	specs := make([]MiddlewareSpec, 0, len(items))
	for i, item := range items {
		spec, err := parseMiddlewareItem(item)
		if err != nil {
			return nil, fmt.Errorf("%w: [%d] %s", ErrInvalidMiddleware, i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseMiddlewareItem(item any) (MiddlewareSpec, error) {
	switch v := item.(type) {
	case string:
		if v == "" {
			return MiddlewareSpec{}, errors.New("empty handle")
		}
		return MiddlewareSpec{Handle: v}, nil
	case map[string]any:
		spec := MiddlewareSpec{
			Handle: cast.ToString(v["handle"]),
			Match:  cast.ToString(v["match"]),
			Ignore: cast.ToString(v["ignore"]),
		}
		if spec.Handle == "" {
			return spec, errors.New("handle is required")
		}
		if enable, ok := v["enable"]; ok {
			spec.Disabled = !cast.ToBool(enable)
		}
		if opts, ok := v["options"]; ok && opts != nil {
			m, ok := opts.(map[string]any)
			if !ok {
				return spec, fmt.Errorf("%s: options must be a mapping", spec.Handle)
			}
			spec.Options = m
		}
		return spec, nil
	}
	return MiddlewareSpec{}, fmt.Errorf("unsupported item %T", item)
}

// LoadMiddlewareFile reads config/middleware.* from fsys. It returns nil
// specs when there is no such file. TOML files keep the list under a
// "middleware" key.
func LoadMiddlewareFile(fsys fs.FS) ([]MiddlewareSpec, bool, error) {
	name, ok := config.Find(fsys, "config", "middleware")
	if !ok {
		return nil, false, nil
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, false, err
	}

	var raw any
	if path.Ext(name) == ".toml" {
		m, err := config.Decode(name, data)
		if err != nil {
			return nil, false, err
		}
		raw = m["middleware"]
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrInvalidMiddleware, name, err)
	}

	specs, err := ParseMiddleware(raw)
	return specs, true, err
}

// chain builds the pipeline from specs, outermost first, ending in final.
func (a *App) chain(specs []MiddlewareSpec, final HandlerFunc) (HandlerFunc, error) {
	h := final
	for i := len(specs) - 1; i >= 0; i-- {
		if specs[i].Disabled {
			continue
		}
		var err error
		if h, err = a.applyMiddleware(specs[i], h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (a *App) applyMiddleware(spec MiddlewareSpec, next HandlerFunc) (HandlerFunc, error) {
	name := spec.Handle
	factory := spec.Factory
	if factory == nil {
		var ok bool
		if factory, ok = a.middlewares.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}
	}
	if name == "" {
		name = "anonymous"
	}

	allow, err := pathFilter(spec.Match, spec.Ignore)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMiddleware, name, err)
	}

	var h HandlerFunc
	if spec.OptionsFunc == nil {
		if h, err = buildMiddleware(factory, spec.Options, a, name, next); err != nil {
			return nil, err
		}
	} else {
		slot := new(atomic.Pointer[HandlerFunc])
		a.BeforeStart(func(ctx context.Context) error {
			opts, err := spec.OptionsFunc(ctx, a)
			if err != nil {
				return fmt.Errorf("anvil: middleware %s options: %w", name, err)
			}
			fn, err := buildMiddleware(factory, opts, a, name, next)
			if err != nil {
				return err
			}
			slot.Store(&fn)
			return nil
		})
		h = func(c Context) error {
			if fn := slot.Load(); fn != nil {
				return (*fn)(c)
			}
			return next(c)
		}
	}

	if allow == nil {
		return h, nil
	}
	return func(c Context) error {
		if !allow(c.Path()) {
			return next(c)
		}
		return h(c)
	}, nil
}

func buildMiddleware(factory MiddlewareFactory, opts map[string]any, a *App, name string, next HandlerFunc) (HandlerFunc, error) {
	if opts == nil {
		opts = map[string]any{}
	}
	mw, err := factory(opts, a)
	if err != nil {
		return nil, fmt.Errorf("anvil: middleware %s: %w", name, err)
	}
	if mw == nil {
		return nil, fmt.Errorf("%w: %s returned no middleware", ErrInvalidMiddleware, name)
	}
	return mw(next), nil
}

// pathFilter returns nil when neither pattern is set.
func pathFilter(match, ignore string) (func(string) bool, error) {
	if match == "" && ignore == "" {
		return nil, nil
	}

	var include, exclude func(string) bool
	var err error
	if match != "" {
		if include, err = router.PathMatcher(match); err != nil {
			return nil, err
		}
	}
	if ignore != "" {
		if exclude, err = router.PathMatcher(ignore); err != nil {
			return nil, err
		}
	}

	return func(p string) bool {
		if include != nil && !include(p) {
			return false
		}
		return exclude == nil || !exclude(p)
	}, nil
}
