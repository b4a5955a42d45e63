package internal

import (
	"reflect"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// actionFunc is the signature of <Name>Action methods.
type actionFunc = func(Context) Result

type actionKey struct {
	typ    reflect.Type
	action string
}

// actionIndex caches the method index of an action per handler type; -1 means none.
var actionIndex sync.Map

// ActionMethod returns the method name serving action: "user_list" and
// "user-list" map to "UserListAction".
func ActionMethod(action string) string {
	// Casers keep state and must not be shared between goroutines.
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for part := range strings.FieldsFuncSeq(action, func(r rune) bool {
		return r == '_' || r == '-' || r == '/' || r == '.'
	}) {
		b.WriteString(caser.String(part))
	}
	b.WriteString("Action")
	return b.String()
}

// lookupAction returns the action method of h, if any.
func lookupAction(h any, action string) (actionFunc, bool) {
	v := reflect.ValueOf(h)
	if !v.IsValid() {
		return nil, false
	}

	key := actionKey{typ: v.Type(), action: action}
	idx, ok := actionIndex.Load(key)
	if !ok {
		idx = -1
		if m, found := v.Type().MethodByName(ActionMethod(action)); found {
			if _, match := v.Method(m.Index).Interface().(actionFunc); match {
				idx = m.Index
			}
		}
		actionIndex.Store(key, idx)
	}

	if i := idx.(int); i >= 0 {
		return v.Method(i).Interface().(actionFunc), true
	}
	return nil, false
}

// resolveAction returns the action method of h, falling back to Caller.
func resolveAction(h any, action string) (actionFunc, bool) {
	if fn, ok := lookupAction(h, action); ok {
		return fn, true
	}
	if c, ok := h.(Caller); ok {
		return c.Call, true
	}
	return nil, false
}

// invokeAction runs the action of h. It reports false when h serves no
// such action.
func invokeAction(c Context, h any, action string) (Result, bool) {
	fn, ok := resolveAction(h, action)
	if !ok {
		return Continue(), false
	}
	return fn(c), true
}

func before(c Context, h any) Result {
	if b, ok := h.(Beforer); ok {
		return b.Before(c)
	}
	return Continue()
}

// settle renders a stopping result. It reports whether the pipeline may
// proceed; a non-nil error goes to the error handler.
func settle(c Context, r Result) (bool, error) {
	switch {
	case r.Continued():
		return true, nil
	case r.Aborted():
		return false, nil
	case r.Err() != nil:
		return false, r.Err()
	default:
		if c.Written() {
			return false, nil
		}
		return false, c.Fail(r.Errno(), r.Errmsg())
	}
}
