package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxcal application
var rootCmd = &cobra.Command{
	Use:   "inboxcal",
	Short: "Suggests meeting times for calendar candidates found in email",
	Long: `inboxcal turns calendar candidates extracted from emails (invites,
proposed times, date ranges and open meeting requests) into concrete meeting
time suggestions that fit the user's working hours and free/busy calendar.

It can run as:
  - A CLI for managing users and candidates and requesting suggestions
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		loadGlobalEnvVars(cmd)
	},
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
	rootCmd.SetVersionTemplate(`{{printf "inboxcal version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globals.dbPath, "db", defaultDBPath, "Path to the SQLite database. Can also use INBOXCAL_DB env var.")
	rootCmd.PersistentFlags().StringVar(&globals.configPath, "config", "", "Path to the YAML configuration file. Can also use INBOXCAL_CONFIG env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newEmailCmd())
	rootCmd.AddCommand(newCandidateCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
