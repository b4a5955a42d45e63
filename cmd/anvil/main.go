package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// appFlags are shared by the commands that load an application.
type appFlags struct {
	root string
	env  string
}

func (f *appFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.root, "root", "r", ".", "application root directory")
	cmd.Flags().StringVarP(&f.env, "env", "e", "", "environment (defaults to APP_ENV or development)")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "anvil",
		Short:         "Run and inspect anvil applications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		routesCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "anvil %s (%s)\n", version, commit)
		},
	}
}
