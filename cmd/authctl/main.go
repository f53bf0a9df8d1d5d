// file: cmd/authctl/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"

	"auth-refresher/cmd/authctl/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "Resolve authorization headers from a refresh command.",
	Long: `authctl runs the configured refresh command and prints the resulting
authorization header or token record. Tokens are cached for the life of the
process and refreshed according to the lifetime the command reports, so
--count exercises the same caching policy a long-running client sees.`,
	SilenceUsage: true,
	// If a subcommand is not provided, default to showing help.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	cmd.AddCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, so we just need to exit
		os.Exit(1)
	}
}
