// Package commands implements the Maxine CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "maxine",
		Short: "Maxine - a Discord bot with an LLM on the side",
		Long: `Maxine is a Discord bot with fun, utility and LLM-backed commands.

Examples:
  maxine setup
  maxine token set
  maxine serve
  maxine console
  maxine prompt get 123456789012345678`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newConsoleCmd(),
		newCommandsCmd(),
		newConfigCmd(),
		newSetupCmd(),
		newTokenCmd(),
		newMigrateCmd(),
		newPromptCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
