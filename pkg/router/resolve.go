package router

import (
	"cmp"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// Options configures request resolution.
type Options struct {
	DefaultController      string `json:"defaultController" yaml:"defaultController"`
	DefaultAction          string `json:"defaultAction" yaml:"defaultAction"`
	EnableDefaultRouter    bool   `json:"enableDefaultRouter" yaml:"enableDefaultRouter"`
	OptimizeHomepageRouter bool   `json:"optimizeHomepageRouter" yaml:"optimizeHomepageRouter"`
}

// DefaultOptions returns the stock resolution options.
func DefaultOptions() Options {
	return Options{
		DefaultController:      "index",
		DefaultAction:          "index",
		EnableDefaultRouter:    true,
		OptimizeHomepageRouter: true,
	}
}

// OptionsFrom reads options from a generic mapping, keeping defaults for
// missing keys.
func OptionsFrom(m map[string]any) Options {
	o := DefaultOptions()
	if v, ok := m["defaultController"]; ok {
		o.DefaultController = cast.ToString(v)
	}
	if v, ok := m["defaultAction"]; ok {
		o.DefaultAction = cast.ToString(v)
	}
	if v, ok := m["enableDefaultRouter"]; ok {
		o.EnableDefaultRouter = cast.ToBool(v)
	}
	if v, ok := m["optimizeHomepageRouter"]; ok {
		o.OptimizeHomepageRouter = cast.ToBool(v)
	}
	return o
}

// Resolved is the outcome of routing a request.
type Resolved struct {
	// Rule is the matched rule, nil for homepage and default routing.
	Rule       *Rule
	Query      map[string]any
	Controller string
	Action     string
	// Redirect is set for REDIRECT rules, which are never dispatched.
	Redirect     string
	RedirectCode int
}

// IsRedirect reports whether the request must be answered with a redirect.
func (r *Resolved) IsRedirect() bool {
	return r.Redirect != ""
}

// Resolver resolves request paths against a route table.
type Resolver struct {
	namespaces []string
	opts       Options
}

// NewResolver creates a resolver. Controllers is the list of known
// controller names; only names containing "/" affect resolution.
func NewResolver(opts Options, controllers ...string) *Resolver {
	if opts.DefaultController == "" {
		opts.DefaultController = "index"
	}
	if opts.DefaultAction == "" {
		opts.DefaultAction = "index"
	}
	r := &Resolver{opts: opts}
	for _, name := range controllers {
		if strings.Contains(name, "/") {
			r.namespaces = append(r.namespaces, name)
		}
	}
	// Longest first, ties broken by name for deterministic results.
	slices.SortFunc(r.namespaces, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return r
}

// Options returns the resolver options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve routes a request. It returns false when no rule matches and
// default routing is disabled.
func (r *Resolver) Resolve(path, method string, table Table) (*Resolved, bool) {
	if r.opts.OptimizeHomepageRouter && (path == "" || path == "/") {
		return &Resolved{
			Controller: r.opts.DefaultController,
			Action:     r.opts.DefaultAction,
			Query:      map[string]any{},
		}, true
	}

	if m, ok := table.Match(path, method); ok {
		return r.resolveRule(m, method), true
	}

	if r.opts.EnableDefaultRouter {
		return r.resolvePath(path, "", method, map[string]any{}), true
	}
	return nil, false
}

func (r *Resolver) resolveRule(m *Match, method string) *Resolved {
	if m.Rule.Method == MethodRedirect {
		code := http.StatusFound
		if v, ok := m.Rule.Options["statusCode"]; ok {
			if c := cast.ToInt(v); c > 0 {
				code = c
			}
		}
		return &Resolved{Rule: m.Rule, Redirect: m.Path, RedirectCode: code, Query: m.Query}
	}
	res := r.resolvePath(m.Path, m.Rule.Method, method, m.Query)
	res.Rule = m.Rule
	return res
}

var (
	edgeSlashes = regexp.MustCompile(`^/|/$`)
	repeatSlash = regexp.MustCompile(`/{2,}`)
)

func (r *Resolver) resolvePath(path, ruleMethod, method string, query map[string]any) *Resolved {
	pathname := edgeSlashes.ReplaceAllString(repeatSlash.ReplaceAllString(path, "/"), "")

	if pos := strings.IndexByte(pathname, '?'); pos > -1 {
		if values, err := url.ParseQuery(pathname[pos+1:]); err == nil {
			for k, v := range values {
				if len(v) == 1 {
					query[k] = v[0]
				} else {
					query[k] = v
				}
			}
		}
		pathname = pathname[:pos]
	}
	Sanitize(query)

	controller, rest := ParseController(pathname, r.namespaces)
	if controller == "" {
		controller = r.opts.DefaultController
	}

	var action string
	if ruleMethod == MethodREST {
		action = strings.ToLower(method)
	} else {
		action, _, _ = strings.Cut(rest, "/")
	}
	if action == "" {
		action = r.opts.DefaultAction
	}

	return &Resolved{Controller: controller, Action: action, Query: query}
}

// ParseController splits pathname into a controller name and the remaining
// path. Known namespaced controllers are checked first in the given order;
// otherwise the first segment is the controller.
func ParseController(pathname string, namespaces []string) (string, string) {
	for _, name := range namespaces {
		if pathname == name {
			return name, ""
		}
		if strings.HasPrefix(pathname, name+"/") {
			return name, pathname[len(name)+1:]
		}
	}
	controller, rest, _ := strings.Cut(pathname, "/")
	return controller, rest
}

// Sanitize removes query entries that are nil, whitespace-only strings or
// lists whose elements are all falsy.
func Sanitize(query map[string]any) {
	for k, v := range query {
		if v == nil || isBlank(v) || isFalsyList(v) {
			delete(query, k)
		}
	}
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func isFalsyList(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := range rv.Len() {
		if !isFalsy(rv.Index(i)) {
			return false
		}
	}
	return true
}

func isFalsy(v reflect.Value) bool {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	return !v.IsValid() || v.IsZero()
}
