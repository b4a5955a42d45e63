// Package anvil is a convention based MVC framework for HTTP services.
//
// An application lives in a root directory:
//
//	app/config/config.yaml        base config
//	app/config/config.<env>.yaml  environment overrides
//	app/config/adapter.yaml       cache, db and logger adapters
//	app/config/router.yaml        custom routes
//	app/config/middleware.yaml    middleware pipeline
//	runtime/                      logs and the resolved config
//	www/                          static files
//
// # Quick Start
//
//	app := anvil.New(
//	    anvil.WithRoot("."),
//	    anvil.WithControllers(map[string]anvil.HandlerFactory{
//	        "user": func(anvil.Context) any { return &UserController{} },
//	    }),
//	)
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Controllers
//
// Requests resolve to a controller and an action, from a custom route or
// from the path itself: /user/detail serves DetailAction of "user".
//
//	type UserController struct{}
//
//	func (UserController) Before(c anvil.Context) anvil.Result {
//	    if c.Header("Authorization") == "" {
//	        return anvil.Fail(401, "login required")
//	    }
//	    return anvil.Continue()
//	}
//
//	func (UserController) DetailAction(c anvil.Context) anvil.Result {
//	    id := anvil.Param[int](c, "id")
//	    if err := c.Success(map[string]any{"id": id}); err != nil {
//	        return anvil.Error(err)
//	    }
//	    return anvil.Continue()
//	}
//
// A Result continues the pipeline, aborts it, or fails it with an errno
// response or an error for the error handler.
//
// # Logic
//
// A logic handler with the controller's name runs first. It restricts
// methods and validates input with go-playground/validator rules:
//
//	type UserLogic struct{}
//
//	func (UserLogic) AllowMethods() []string { return []string{"POST"} }
//
//	func (UserLogic) Rules() map[string]string {
//	    return map[string]string{"email": "required,email"}
//	}
//
// # Routes
//
// router.yaml lists rules tried in order:
//
//	- ["/user/:id", "/user/detail", "get"]
//	- ["/old/(.*)", "/new/:1", "redirect", {statusCode: 301}]
//	- ["/api/post/:id?", "rest"]
//
// # Lifecycle
//
// Load reads config, opens adapters and compiles routes and middleware.
// Start waits for BeforeStart tasks, listens and runs OnReady hooks. The
// worker closes gracefully on SIGTERM, on Shutdown, or on the first crash.
package anvil
