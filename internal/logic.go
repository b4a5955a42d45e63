package internal

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// methodNotAllowed is the errmsg of logic method checks.
const methodNotAllowed = "METHOD_NOT_ALLOWED"

// LogicMiddleware runs the logic handler registered under the resolved
// controller name: before hook, action, method check, then either the after
// hook or validation of Scope and Rules against the request input.
func LogicMiddleware(_ map[string]any, app *App) (Middleware, error) {
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			name, action := c.ControllerName(), c.ActionName()
			if name == "" || action == "" {
				return ErrNotFound("")
			}
			if app.logics.Len() == 0 {
				return next(c)
			}
			factory, ok := app.logics.Lookup(name)
			if !ok {
				return next(c)
			}

			h := factory(c)
			if proceed, err := settle(c, before(c, h)); !proceed {
				return err
			}

			if fn, ok := resolveAction(h, action); ok {
				res := fn(c)
				if !allowsMethod(h, c.Method()) {
					res = Fail(app.validateErrno(), methodNotAllowed)
				}
				if proceed, err := settle(c, res); !proceed {
					return err
				}
			}

			if a, ok := h.(Afterer); ok {
				if proceed, err := settle(c, a.After(c)); !proceed {
					return err
				}
				return next(c)
			}

			rules := logicRules(h)
			if len(rules) > 0 {
				in, err := c.Input()
				if err != nil {
					return err
				}
				if errs := validateInput(app.validate, in, rules); len(errs) > 0 {
					if proceed, err := settle(c, Fail(app.validateErrno(), errs)); !proceed {
						return err
					}
				}
			}
			return next(c)
		}
	}, nil
}

// allowsMethod checks method against the AllowMethods of h. Handlers
// without a list accept every method.
func allowsMethod(h any, method string) bool {
	ma, ok := h.(MethodAllower)
	if !ok {
		return true
	}
	var allowed []string
	for _, item := range ma.AllowMethods() {
		for m := range strings.SplitSeq(item, ",") {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				allowed = append(allowed, m)
			}
		}
	}
	return len(allowed) == 0 || slices.Contains(allowed, strings.ToUpper(method))
}

// logicRules merges Scope and Rules; rules win.
func logicRules(h any) map[string]string {
	rules := make(map[string]string)
	if s, ok := h.(Scoper); ok {
		maps.Copy(rules, s.Scope())
	}
	if r, ok := h.(Ruler); ok {
		maps.Copy(rules, r.Rules())
	}
	for k, v := range rules {
		if strings.TrimSpace(v) == "" {
			delete(rules, k)
		}
	}
	return rules
}

// validateInput checks in against rules and returns one message per failed field.
func validateInput(v *validator.Validate, in map[string]any, rules map[string]string) map[string]string {
	tags := make(map[string]any, len(rules))
	for field, tag := range rules {
		tags[field] = tag
	}

	out := make(map[string]string)
	for field, res := range v.ValidateMap(in, tags) {
		errs, ok := res.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			if err, isErr := res.(error); isErr {
				out[field] = err.Error()
			}
			continue
		}
		out[field] = fmt.Sprintf("%s failed on the '%s' rule", field, errs[0].Tag())
	}
	return out
}
