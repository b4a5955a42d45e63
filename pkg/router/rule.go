package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	pathToRegexp "github.com/soongo/path-to-regexp"
)

// Special rule methods.
const (
	MethodREST     = "REST"
	MethodRedirect = "REDIRECT"
)

// Entry is an item of a compiled route table: either *Rule or *Group.
type Entry interface {
	entry()
}

// Param is a capture group of a rule pattern. Unnamed groups are numbered
// from zero in pattern order and their Name holds that number.
type Param struct {
	Name string
}

// Positional reports whether the param is an unnamed group and returns its
// 1-based placeholder number.
func (p Param) Positional() (int, bool) {
	n, err := strconv.Atoi(p.Name)
	if err != nil {
		return 0, false
	}
	return n + 1, true
}

// Rule is a compiled leaf rule. It is immutable once compiled.
type Rule struct {
	Options map[string]any
	match   *matcher
	Pattern string
	// Path is the template the request is rewritten to. Empty means the
	// request path itself.
	Path string
	// Method is the uppercased method list ("GET", "GET,POST"), one of the
	// special methods, or empty for any method.
	Method string
	Query  []Param
}

func (*Rule) entry() {}

// Group is a compiled rule namespace. Its rules are evaluated only when
// the group pattern matches the request path.
type Group struct {
	match   *matcher
	Name    string
	Pattern string
	Rules   Table
}

func (*Group) entry() {}

// Table is an ordered, compiled route table.
type Table []Entry

// allowsMethod reports whether the rule may serve the request method.
func (r *Rule) allowsMethod(method string) bool {
	if r.Method == "" || r.Method == MethodREST || r.Method == MethodRedirect {
		return true
	}
	for m := range strings.SplitSeq(r.Method, ",") {
		if strings.TrimSpace(m) == method {
			return true
		}
	}
	return false
}

// matcher wraps a compiled path-to-regexp expression with its capture tokens.
type matcher struct {
	re     *regexp2.Regexp
	tokens []pathToRegexp.Token
}

func compilePattern(pattern string) (m *matcher, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%v", r)
		}
	}()

	var tokens []pathToRegexp.Token
	re, err := pathToRegexp.PathToRegexp(pattern, &tokens, nil)
	if err != nil {
		return nil, err
	}
	return &matcher{re: re, tokens: tokens}, nil
}

// matches reports whether path satisfies the pattern.
func (m *matcher) matches(path string) bool {
	if m == nil {
		return true
	}
	ok, err := m.re.MatchString(path)
	return err == nil && ok
}

// exec matches path and returns one value per token. Groups that did not
// participate in the match yield nil.
func (m *matcher) exec(path string) ([]any, bool) {
	found, err := m.re.FindStringMatch(path)
	if err != nil || found == nil {
		return nil, false
	}
	values := make([]any, len(m.tokens))
	for i := range m.tokens {
		g := found.GroupByNumber(i + 1)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		values[i] = g.String()
	}
	return values, true
}

func (m *matcher) params() []Param {
	params := make([]Param, 0, len(m.tokens))
	for _, tok := range m.tokens {
		switch name := tok.Name.(type) {
		case string:
			params = append(params, Param{Name: name})
		case int:
			params = append(params, Param{Name: strconv.Itoa(name)})
		default:
			params = append(params, Param{Name: strconv.Itoa(len(params))})
		}
	}
	return params
}

// PathMatcher compiles a path-to-regexp pattern into a predicate over
// request paths.
func PathMatcher(pattern string) (func(path string) bool, error) {
	m, err := compilePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	return m.matches, nil
}
