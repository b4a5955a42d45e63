package internal

// HandlerFunc is a step of the request pipeline.
// Returning a non-nil error hands the request to the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
//
//	func Auth(next anvil.HandlerFunc) anvil.HandlerFunc {
//	    return func(c anvil.Context) error {
//	        if c.Header("Authorization") == "" {
//	            return c.Error(http.StatusUnauthorized, "unauthorized")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from the pipeline.
type ErrorHandler func(Context, error) error

// HandlerFactory creates the controller or logic instance serving one request.
// The instance is never shared between requests.
type HandlerFactory func(c Context) any

// ServiceFactory creates a service. Args are those passed to Context.Service.
type ServiceFactory func(app *App, args ...any) any

// ModelFactory creates a model bound to the application adapters.
type ModelFactory func(app *App) any

// Beforer runs before the action. A non-continue result ends the pipeline.
type Beforer interface {
	Before(c Context) Result
}

// Afterer runs after the action. On logic handlers it replaces validation.
type Afterer interface {
	After(c Context) Result
}

// Caller serves actions that have no <Name>Action method.
type Caller interface {
	Call(c Context) Result
}

// MethodAllower restricts the request methods a logic handler accepts.
// Elements may themselves be comma separated lists.
type MethodAllower interface {
	AllowMethods() []string
}

// Ruler declares validation rules as field name to validator tag.
type Ruler interface {
	Rules() map[string]string
}

// Scoper declares rules shared by all actions of a logic handler.
// Rules override scope entries with the same field.
type Scoper interface {
	Scope() map[string]string
}
