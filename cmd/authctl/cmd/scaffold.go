// file: cmd/authctl/cmd/scaffold.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"auth-refresher/config"
)

const (
	defaultScaffoldPath = "authctl.yaml"
	sampleCommand       = "/usr/local/bin/fetch-token"
)

const scaffoldHeader = `# authctl configuration
#
# credential.refreshCommand is run with no arguments and must print
# "<token> <lifetime-seconds>" on stdout. A negative lifetime never expires,
# zero means single use. Leave it empty to disable the header entirely.
`

func newScaffoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold [path]",
		Short: "Write a sample configuration file",
		Long: `The scaffold command writes a commented sample configuration with every key
set to its default. --command and --scheme are carried into the file. The
target defaults to ./authctl.yaml and is never overwritten without --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScaffold,
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func runScaffold(cmd *cobra.Command, args []string) error {
	path := defaultScaffoldPath
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	cfg := config.Default()
	cfg.Credential.RefreshCommand = sampleCommand
	if cmd.Flags().Changed("command") {
		cfg.Credential.RefreshCommand, _ = cmd.Flags().GetString("command")
	}
	if cmd.Flags().Changed("scheme") {
		cfg.Credential.Scheme, _ = cmd.Flags().GetString("scheme")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Credential.RefreshTimeout, _ = cmd.Flags().GetDuration("timeout")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(scaffoldHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
