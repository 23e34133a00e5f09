package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Global flags available to all subcommands.
var (
	portFlag      string
	logFormatFlag string
)

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apiUsuarios",
		Short:         "User accounts and credential recovery API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.PersistentFlags().StringVar(&portFlag, "port", "", "HTTP port (overrides PORT)")
	cmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "log format: json or text (overrides LOG_FORMAT)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
