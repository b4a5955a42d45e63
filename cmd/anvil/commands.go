package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/pkg/router"
)

func serveCmd() *cobra.Command {
	var flags appFlags
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Load the application under --root and serve it until SIGINT or SIGTERM.
Static files are served from <root>/www, controllers must be compiled in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []anvil.Option{anvil.WithRoot(flags.root), anvil.WithEnv(flags.env)}
			if cmd.Flags().Changed("port") {
				opts = append(opts, anvil.WithConfig(map[string]any{"port": port}))
			}
			return anvil.New(opts...).Run()
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overriding config")
	return cmd
}

func routesCmd() *cobra.Command {
	var flags appFlags

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the compiled route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *anvil.App) error {
				return printRoutes(cmd.OutOrStdout(), app.Table())
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	var flags appFlags
	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print a config value; dotted keys reach nested values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *anvil.App) error {
				v := any(app.Config().All())
				if len(args) == 1 {
					if !app.Config().Has(args[0]) {
						return fmt.Errorf("config key %q is not set", args[0])
					}
					v = app.Config().Get(args[0])
				}
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(v)
			})
		},
	}
	flags.register(get)
	cmd.AddCommand(get)
	return cmd
}

// withApp loads the application, runs fn and shuts down. The server is
// never started.
func withApp(flags appFlags, fn func(app *anvil.App) error) error {
	app := anvil.New(anvil.WithRoot(flags.root), anvil.WithEnv(flags.env))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	}()
	if err := app.Load(); err != nil {
		return err
	}
	return fn(app)
}

func printRoutes(out io.Writer, table router.Table) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN\tMETHOD\tPATH")
	table.Walk(func(depth int, e router.Entry) {
		indent := strings.Repeat("  ", depth)
		switch v := e.(type) {
		case *router.Group:
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", indent, v.Pattern, "", "["+v.Name+"]")
		case *router.Rule:
			method, path := v.Method, v.Path
			if method == "" {
				method = "*"
			}
			if path == "" {
				path = "-"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", indent, v.Pattern, method, path)
		}
	})
	return tw.Flush()
}
