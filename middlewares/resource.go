package middlewares

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/internal"
)

// DefaultPublicPath matches the paths served by the resource middleware.
const DefaultPublicPath = `^/(static|favicon\.ico)`

// ResourceConfig configures the resource middleware.
type ResourceConfig struct {
	// FS holds the files. Defaults to the application static directory.
	FS fs.FS
	// PublicPath is a JavaScript style regular expression.
	PublicPath string
}

// ResourceConfigFrom reads the publicPath option; an fs.FS under "fs"
// replaces the application static directory.
func ResourceConfigFrom(opts map[string]any, app *internal.App) (ResourceConfig, error) {
	cfg := ResourceConfig{FS: app.Static(), PublicPath: DefaultPublicPath}
	if v := cast.ToString(opts["publicPath"]); v != "" {
		cfg.PublicPath = v
	}
	if v, ok := opts["fs"]; ok {
		fsys, ok := v.(fs.FS)
		if !ok {
			return cfg, invalidOption("resource", "fs", errNotFS)
		}
		cfg.FS = fsys
	}
	return cfg, nil
}

// Resource serves static files for GET and HEAD requests whose path
// matches PublicPath. Missing files and directories pass the request on.
func Resource(opts map[string]any, app *internal.App) (internal.Middleware, error) {
	cfg, err := ResourceConfigFrom(opts, app)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(cfg.PublicPath, regexp2.ECMAScript)
	if err != nil {
		return nil, invalidOption("resource", "publicPath", err)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
				return next(c)
			}
			clean := path.Clean("/" + c.Path())
			if ok, err := re.MatchString(clean); err != nil || !ok {
				return next(c)
			}

			name := strings.TrimPrefix(clean, "/")
			info, err := fs.Stat(cfg.FS, name)
			if err != nil || info.IsDir() {
				return next(c)
			}
			http.ServeFileFS(c.Response(), c.Request(), cfg.FS, name)
			return nil
		}
	}, nil
}
