// Package middlewares provides the middleware factories bundled with anvil.
//
// Every middleware is a factory taking the options of its entry in the
// middleware list and the application:
//
//	func(opts map[string]any, app *anvil.App) (anvil.Middleware, error)
//
// anvil.New registers them under these handles:
//
//	recover    recover panics, report them as uncaught exceptions
//	meta       X-Powered-By, X-Response-Time and request ID headers
//	resource   static files from the www directory
//	requestid  request ID without the other meta headers
//	metrics    Prometheus request metrics
//	cors       Cross-Origin Resource Sharing
//	timeout    request deadline
//	locale     response language from query, cookie or Accept-Language
//
// The default pipeline is recover, meta, resource, router, logic and
// controller. A config/middleware.yaml replaces it:
//
//	- recover
//	- handle: cors
//	  match: /api/(.*)
//	  options:
//	    origin: [https://app.example.com]
//	    credentials: true
//	- meta
//	- handle: timeout
//	  options:
//	    timeout: 5s
//	- router
//	- logic
//	- controller
//
// # Errors
//
// Recover returns a PanicError and Timeout a TimeoutError. Both reach the
// error handler:
//
//	anvil.WithErrorHandler(func(c anvil.Context, err error) error {
//	    switch {
//	    case middlewares.IsTimeoutError(err):
//	        return c.String(504, "Gateway Timeout")
//	    case middlewares.IsPanicError(err):
//	        return c.String(500, "Internal Server Error")
//	    }
//	    return anvil.DefaultErrorHandler(c, err)
//	})
//
// Use RequestIDExtractor with WithLogExtractors to add request_id to logs.
package middlewares
