// Package internal provides the core types and implementation of the anvil
// framework.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/anvil" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: registries, configuration, adapters and the request pipeline
//   - Context: per-request state shared by every pipeline step
//   - HandlerFunc and Middleware: the pipeline building blocks
//   - Result: the continue, abort or fail outcome of hooks and actions
//   - Worker: one HTTP server with graceful shutdown and crash accounting
//
// # Request Pipeline
//
// Every request not served by a health or metrics endpoint runs through
// the middleware list. With no configuration the list is router, logic,
// controller:
//
//   - router resolves controller, action and params from the route table
//   - logic runs the logic handler of the controller: before hook, action,
//     allowed methods, then the after hook or validation of Rules and Scope
//   - controller runs the controller: before hook, <Name>Action or Call,
//     after hook
//
// A hook or action stops the pipeline by returning Abort, Fail or Error:
//
//	type UserController struct{}
//
//	func (UserController) Before(c internal.Context) internal.Result {
//	    if c.Header("Authorization") == "" {
//	        return internal.Fail(401, "unauthorized")
//	    }
//	    return internal.Continue()
//	}
//
//	func (UserController) DetailAction(c internal.Context) internal.Result {
//	    if err := c.Success(map[string]string{"id": c.Param("id")}); err != nil {
//	        return internal.Error(err)
//	    }
//	    return internal.Continue()
//	}
//
// # Handler Instances
//
// Controllers and logic handlers are created per request by their
// registered HandlerFactory; an instance is never shared between requests.
//
// # Lifecycle
//
// Load resolves paths and reads config, adapter, router and middleware
// files. Start waits for the before-start tasks, bounded by
// startServerTimeout, then listens and fires the ready hooks. Run blocks
// until the worker closes, except in the test environment.
package internal
