package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calview application
var rootCmd = &cobra.Command{
	Use:   "calview",
	Short: "Serves a month view of your Google Calendar",
	Long: `calview is a thin web application that shows a signed-in user's Google
Calendar as a month grid and relays event reads and writes to the Google
Calendar API.

Sign-in itself is handled by an external auth service; calview only holds
the resulting access token for the lifetime of a session.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calview version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
