// file: cmd/authctl/cmd/root.go
package cmd

import "github.com/spf13/cobra"

// AddCommands registers the shared flags and all subcommands on root.
func AddCommands(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a config file (defaults and AUTHCTL_* environment only when empty)")
	flags.String("command", "", "Refresh command, overrides credential.refreshCommand")
	flags.String("scheme", "", "Authorization scheme, overrides credential.scheme")
	flags.Duration("timeout", 0, "Bound on a single refresh, overrides credential.refreshTimeout (0 = none)")
	flags.BoolP("verbose", "v", false, "Log refresh activity to stderr")

	root.AddCommand(newHeaderCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newScaffoldCmd())
}
