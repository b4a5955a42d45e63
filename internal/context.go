package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"maps"
	"mime"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/pkg/logger"
)

const maxJSONBody = 1 << 20

// Context is the per-request state shared by every pipeline step.
// It implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter
	ResponseWriter() *ResponseWriter
	Context() context.Context
	App() *App

	// Path is the request path used for routing.
	Path() string
	// Method is the uppercased request method.
	Method() string

	// ControllerName and ActionName are set by the router middleware.
	ControllerName() string
	ActionName() string
	// SetRoute replaces the resolved controller, action and route params.
	SetRoute(controller, action string, params map[string]any)

	// Param returns a route param, falling back to the query string.
	Param(name string) string
	// Params returns the query string merged with the route params.
	Params() map[string]any
	Query(name string) string
	QueryDefault(name, defaultValue string) string
	Form(name string) string
	// Input merges query, form or JSON body and route params, in that order.
	Input() (map[string]any, error)

	Header(name string) string
	SetHeader(name, value string)

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error
	// Success writes {errno: 0, errmsg: "", data: data}.
	Success(data any) error
	// Fail writes {errno, errmsg} with status 200. A zero errno selects defaultErrno.
	Fail(errno int, errmsg any) error
	// Error builds an HTTPError to be returned from the pipeline.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError
	Written() bool

	// Config reads a resolved configuration value.
	Config(key string) any
	Service(name string, args ...any) (any, error)
	Model(name string) (any, error)
	// Controller creates another controller bound to this request.
	Controller(name string) (any, error)
	// Action runs the before, action and after hooks of controller, which
	// is a controller name or an instance.
	Action(controller any, action string) Result

	Logger() *logger.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value on the request context.
	Set(key, value any)
	Get(key any) any
}

type requestContext struct {
	request    *http.Request
	response   *ResponseWriter
	app        *App
	params     map[string]any
	input      map[string]any
	inputErr   error
	controller string
	action     string
	inputDone  bool
}

// NewContext creates the context serving r. The writer is wrapped unless it
// already is a *ResponseWriter.
func NewContext(w http.ResponseWriter, r *http.Request, app *App) Context {
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w)
	}
	return &requestContext{request: r, response: rw, app: app}
}

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Request() *http.Request          { return c.request }
func (c *requestContext) Response() http.ResponseWriter   { return c.response }
func (c *requestContext) ResponseWriter() *ResponseWriter { return c.response }
func (c *requestContext) Context() context.Context        { return c.request.Context() }
func (c *requestContext) App() *App                       { return c.app }

func (c *requestContext) Path() string   { return c.request.URL.Path }
func (c *requestContext) Method() string { return c.request.Method }

func (c *requestContext) ControllerName() string { return c.controller }
func (c *requestContext) ActionName() string     { return c.action }

func (c *requestContext) SetRoute(controller, action string, params map[string]any) {
	c.controller, c.action = controller, action
	c.params = params
	c.inputDone = false
}

func (c *requestContext) Param(name string) string {
	if v, ok := c.params[name]; ok {
		return cast.ToString(v)
	}
	return c.Query(name)
}

func (c *requestContext) Params() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.request.URL.Query() {
		out[k] = first(v)
	}
	maps.Copy(out, c.params)
	return out
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Form(name string) string {
	return c.request.PostFormValue(name)
}

func (c *requestContext) Input() (map[string]any, error) {
	if c.inputDone {
		return c.input, c.inputErr
	}
	c.inputDone = true

	in := make(map[string]any)
	for k, v := range c.request.URL.Query() {
		in[k] = first(v)
	}

	ct, _, _ := mime.ParseMediaType(c.Header("Content-Type"))
	switch {
	case ct == "application/json" && c.request.Body != nil && c.request.Body != http.NoBody:
		var body map[string]any
		dec := json.NewDecoder(io.LimitReader(c.request.Body, maxJSONBody))
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			c.inputErr = ErrBadRequest("invalid JSON body", WithError(err))
			return nil, c.inputErr
		}
		maps.Copy(in, body)
	case c.request.Method != http.MethodGet && c.request.Method != http.MethodHead:
		if err := c.request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			c.inputErr = ErrBadRequest("invalid form body", WithError(err))
			return nil, c.inputErr
		}
		for k, v := range c.request.PostForm {
			in[k] = first(v)
		}
	}

	maps.Copy(in, c.params)
	c.input = in
	return in, nil
}

func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }

func (c *requestContext) SetHeader(name, value string) { c.response.Header().Set(name, value) }

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", c.app.jsonContentType())
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := io.WriteString(c.response, s)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Success(data any) error {
	errnoField, errmsgField := c.app.errorFields()
	return c.JSON(http.StatusOK, map[string]any{errnoField: 0, errmsgField: "", "data": data})
}

func (c *requestContext) Fail(errno int, errmsg any) error {
	if errno == 0 {
		errno = c.app.conf.Int("defaultErrno")
	}
	errnoField, errmsgField := c.app.errorFields()
	return c.JSON(http.StatusOK, map[string]any{errnoField: errno, errmsgField: errmsg})
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool { return c.response.Written() }

func (c *requestContext) Config(key string) any { return c.app.conf.Get(key) }

func (c *requestContext) Service(name string, args ...any) (any, error) {
	return c.app.Service(name, args...)
}

func (c *requestContext) Model(name string) (any, error) {
	return c.app.Model(name)
}

func (c *requestContext) Controller(name string) (any, error) {
	factory, ok := c.app.controllers.Lookup(name)
	if !ok {
		return nil, errors.Join(ErrUnknownController, errors.New(name))
	}
	return factory(c), nil
}

func (c *requestContext) Action(controller any, action string) Result {
	h := controller
	if name, ok := controller.(string); ok {
		var err error
		if h, err = c.Controller(name); err != nil {
			return Error(err)
		}
	}

	if r := before(c, h); !r.Continued() {
		return r
	}
	r, _ := invokeAction(c, h, action)
	if !r.Continued() {
		return r
	}
	if a, ok := h.(Afterer); ok {
		return a.After(c)
	}
	return r
}

func (c *requestContext) Logger() *logger.Logger { return c.app.logger }

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }

func first(v []string) any {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
