// Package router compiles declarative route tables and resolves request paths
// to a controller and action.
//
// A route table is plain data, usually read from config/router.yaml:
//
//	- ["/user/:id", "/user/detail/:id", "get"]
//	- ["/api/post/:id?", "REST"]
//	- ["/old/:page", "/new/:page", "redirect", {statusCode: 301}]
//	- match: "/admin/(.*)"
//	  rules:
//	    - ["/admin/stats", "/admin/dashboard/stats"]
//
// Each tuple is [pattern, path, method?, options?]. Patterns use
// path-to-regexp syntax (named parameters, optional modifiers and unnamed
// groups such as (\d+)). Placeholders in the path template are replaced with
// captured values: named captures by :name, unnamed captures by :1, :2 and so on.
//
// # Compiling
//
// [Compile] accepts the list form, the namespace form (a mapping from name to
// {match, rules}) or an already compiled [Table]. Compiled entries are returned
// unchanged, so calling Compile on its own output is safe:
//
//	table, err := router.Compile(raw)
//	if err != nil {
//	    return err // *router.CompileError names the failing entry
//	}
//
// # Resolving
//
// [Resolver] implements the full request routing algorithm: homepage fast path,
// first-match table scan with group pruning, default routing, REST and REDIRECT
// rules, controller namespaces and query sanitization.
//
//	res := router.NewResolver(router.DefaultOptions(), "admin/user")
//	r, ok := res.Resolve("/admin/user/list", "GET", table)
//	// r.Controller == "admin/user", r.Action == "list"
package router
