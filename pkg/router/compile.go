package router

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// RawRule is the declarative rule tuple [pattern, path, method?, options?].
type RawRule []any

// RawGroup is the declarative rule group {match, rules}.
type RawGroup struct {
	Match string `json:"match" yaml:"match"`
	Rules []any  `json:"rules" yaml:"rules"`
}

// Namespaces is the mapping form of a route table. Namespaces are compiled
// in lexicographic name order.
type Namespaces map[string]RawGroup

// Compile turns a raw route table into a compiled Table.
//
// Accepted sources: []any (rule tuples and groups), []RawRule, Namespaces,
// map[string]any (namespace form as decoded from YAML or JSON), and Table.
// Entries that are already compiled are kept as they are.
func Compile(src any) (Table, error) {
	switch v := src.(type) {
	case nil:
		return Table{}, nil
	case Table:
		return v, nil
	case []Entry:
		return Table(v), nil
	case []any:
		return compileList(v, "")
	case []RawRule:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return compileList(items, "")
	case Namespaces:
		groups := make(map[string]any, len(v))
		for name, g := range v {
			groups[name] = g
		}
		return compileNamespaces(groups)
	case map[string]any:
		return compileNamespaces(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedTable, src)
	}
}

// MustCompile is like Compile but panics on error.
func MustCompile(src any) Table {
	t, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return t
}

func compileList(items []any, prefix string) (Table, error) {
	table := make(Table, 0, len(items))
	for i, item := range items {
		loc := fmt.Sprintf("%s[%d]", prefix, i)
		e, err := compileItem(item, loc)
		if err != nil {
			return nil, err
		}
		table = append(table, e)
	}
	return table, nil
}

func compileItem(item any, loc string) (Entry, error) {
	switch v := item.(type) {
	case *Rule:
		return v, nil
	case *Group:
		return v, nil
	case RawRule:
		return compileRule(v, loc)
	case []any:
		return compileRule(v, loc)
	case []string:
		tuple := make([]any, len(v))
		for i, s := range v {
			tuple[i] = s
		}
		return compileRule(tuple, loc)
	case RawGroup:
		return compileGroup("", v.Match, v.Rules, loc)
	case *RawGroup:
		return compileGroup("", v.Match, v.Rules, loc)
	case map[string]any:
		match, rules, err := groupFields(v)
		if err != nil {
			return nil, &CompileError{Location: loc, Err: err}
		}
		return compileGroup("", match, rules, loc)
	default:
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: unexpected %T", ErrInvalidRule, item)}
	}
}

func compileRule(tuple []any, loc string) (*Rule, error) {
	if len(tuple) < 2 || len(tuple) > 4 {
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: want 2 to 4 elements, got %d", ErrInvalidRule, len(tuple))}
	}

	pattern, ok := tuple[0].(string)
	if !ok {
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: pattern must be a string", ErrInvalidRule)}
	}
	path, err := optionalString(tuple[1])
	if err != nil {
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: path %v", ErrInvalidRule, err)}
	}

	var method string
	if len(tuple) == 2 && strings.EqualFold(path, MethodREST) {
		method, path = MethodREST, ""
	}
	if len(tuple) > 2 {
		m, err := optionalString(tuple[2])
		if err != nil {
			return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: method %v", ErrInvalidRule, err)}
		}
		method = strings.ToUpper(strings.ReplaceAll(m, " ", ""))
	}

	options := map[string]any{}
	if len(tuple) == 4 && tuple[3] != nil {
		opts, ok := tuple[3].(map[string]any)
		if !ok {
			return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: options must be a mapping", ErrInvalidRule)}
		}
		options = maps.Clone(opts)
	}

	m, err := compilePattern(pattern)
	if err != nil {
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)}
	}

	return &Rule{
		Pattern: pattern,
		Path:    path,
		Method:  method,
		Options: options,
		Query:   m.params(),
		match:   m,
	}, nil
}

func compileGroup(name, pattern string, rules any, loc string) (*Group, error) {
	g := &Group{Name: name, Pattern: pattern}
	if pattern != "" {
		m, err := compilePattern(pattern)
		if err != nil {
			return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)}
		}
		g.match = m
	}

	var items []any
	switch v := rules.(type) {
	case []any:
		items = v
	case nil:
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: missing rules", ErrInvalidGroup)}
	default:
		return nil, &CompileError{Location: loc, Err: fmt.Errorf("%w: rules must be a list, got %T", ErrInvalidGroup, rules)}
	}

	compiled, err := compileList(items, loc+".rules")
	if err != nil {
		return nil, err
	}
	g.Rules = compiled
	return g, nil
}

func compileNamespaces(groups map[string]any) (Table, error) {
	names := slices.Sorted(maps.Keys(groups))
	table := make(Table, 0, len(names))
	for _, name := range names {
		var (
			match string
			rules any
		)
		switch v := groups[name].(type) {
		case *Group:
			table = append(table, v)
			continue
		case RawGroup:
			match, rules = v.Match, v.Rules
		case map[string]any:
			var err error
			match, rules, err = groupFields(v)
			if err != nil {
				return nil, &CompileError{Location: name, Err: err}
			}
		default:
			return nil, &CompileError{Location: name, Err: fmt.Errorf("%w: unexpected %T", ErrInvalidGroup, v)}
		}
		g, err := compileGroup(name, match, rules, name)
		if err != nil {
			return nil, err
		}
		table = append(table, g)
	}
	return table, nil
}

func groupFields(m map[string]any) (string, any, error) {
	rules, ok := m["rules"]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing rules", ErrInvalidGroup)
	}
	match, err := optionalString(m["match"])
	if err != nil {
		return "", nil, fmt.Errorf("%w: match %v", ErrInvalidGroup, err)
	}
	return match, rules, nil
}

func optionalString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("must be a string, got %T", v)
	}
}

// Route builds a rule tuple for programmatic tables.
func Route(pattern, path string, method ...string) RawRule {
	r := RawRule{pattern, path}
	if len(method) > 0 {
		r = append(r, strings.Join(method, ","))
	}
	return r
}

// REST builds the REST shorthand rule: actions are derived from the request method.
func REST(pattern string) RawRule {
	return RawRule{pattern, MethodREST}
}

// Redirect builds a REDIRECT rule. A zero code keeps the default 302.
func Redirect(pattern, location string, code int) RawRule {
	r := RawRule{pattern, location, MethodRedirect}
	if code > 0 {
		r = append(r, map[string]any{"statusCode": code})
	}
	return r
}

// Nest builds a rule group evaluated only when match matches the request path.
func Nest(match string, rules ...any) RawGroup {
	return RawGroup{Match: match, Rules: rules}
}
