package router

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Match is the result of matching a request against a route table.
type Match struct {
	Rule *Rule
	// Query holds named captures. Optional groups that did not match are nil.
	Query map[string]any
	// Path is the rule template with placeholders substituted, or the
	// request path when the rule has no template.
	Path string
}

// Match scans the table in order and returns the first leaf rule matching
// path and method. Group rules are visited only when the group pattern
// matches path.
func (t Table) Match(path, method string) (*Match, bool) {
	method = strings.ToUpper(method)
	for _, e := range t {
		switch v := e.(type) {
		case *Rule:
			if !v.allowsMethod(method) {
				continue
			}
			if m, ok := v.exec(path); ok {
				return m, true
			}
		case *Group:
			if !v.match.matches(path) {
				continue
			}
			if m, ok := v.Rules.Match(path, method); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func (r *Rule) exec(path string) (*Match, bool) {
	values, ok := r.match.exec(path)
	if !ok {
		return nil, false
	}

	template := r.Path
	if template == "" {
		template = path
	}

	query := make(map[string]any)
	type placeholder struct {
		value any
		key   string
	}
	placeholders := make([]placeholder, 0, len(r.Query))
	for i, p := range r.Query {
		if n, positional := p.Positional(); positional {
			placeholders = append(placeholders, placeholder{key: ":" + strconv.Itoa(n), value: values[i]})
			continue
		}
		query[p.Name] = values[i]
		placeholders = append(placeholders, placeholder{key: ":" + p.Name, value: values[i]})
	}

	// Longer keys first so that :id does not clobber :idx and :1 does not clobber :10.
	slices.SortStableFunc(placeholders, func(a, b placeholder) int {
		return cmp.Compare(len(b.key), len(a.key))
	})
	pairs := make([]string, 0, len(placeholders)*2)
	for _, p := range placeholders {
		s, _ := p.value.(string)
		pairs = append(pairs, p.key, s)
	}
	if len(pairs) > 0 {
		template = strings.NewReplacer(pairs...).Replace(template)
	}

	return &Match{Rule: r, Path: template, Query: query}, true
}

// Walk visits every entry depth-first in table order. Top-level entries
// have depth 0.
func (t Table) Walk(fn func(depth int, e Entry)) {
	t.walk(0, fn)
}

func (t Table) walk(depth int, fn func(int, Entry)) {
	for _, e := range t {
		fn(depth, e)
		if g, ok := e.(*Group); ok {
			g.Rules.walk(depth+1, fn)
		}
	}
}
