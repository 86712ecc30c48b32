package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the auth API CLI. Without a
// subcommand it starts the HTTP server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authapi",
		Short: "User registration and login API",
		Long: `authapi serves user registration and login over HTTP, issuing
signed bearer tokens valid for 24 hours.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Configuration is read from the environment;
JWT_SECRET or JWT_SECRET_FILE must be set.`,
		RunE: runServe,
	}
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("authapi %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
