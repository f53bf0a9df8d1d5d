// file: cmd/authctl/cmd/header.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"auth-refresher/internal/auth"
)

type headerOutput struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func newHeaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Print the authorization header for the configured credential",
		Long: `The header command resolves the authorization header once, or --count times
against the same provider with --interval between accesses. The token is reused
while its lifetime allows and refreshed otherwise. With no refresh command
configured nothing is printed. --fresh discards the cached token before each
resolution so every one runs the refresh command.`,
		Args: cobra.NoArgs,
		RunE: runHeader,
	}

	cmd.Flags().IntP("count", "n", 1, "Number of times to resolve the header")
	cmd.Flags().Duration("interval", 0, "Pause between resolutions when --count > 1")
	cmd.Flags().StringP("output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().Bool("fresh", false, "Drop the cached token before every resolution, forcing a refresh")
	return cmd
}

func runHeader(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	interval, _ := cmd.Flags().GetDuration("interval")
	format, _ := cmd.Flags().GetString("output")
	fresh, _ := cmd.Flags().GetBool("fresh")

	if count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}
	if interval < 0 {
		return fmt.Errorf("--interval cannot be negative: %s", interval)
	}

	out, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if !s.provider.Enabled() {
		fmt.Fprintln(cmd.ErrOrStderr(), "no refresh command configured; no header issued")
		return nil
	}

	ctx := cmd.Context()
	stopMetrics := s.serveMetrics(ctx)
	defer stopMetrics()

	for i := 0; i < count; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}

		if fresh {
			s.provider.Invalidate()
		}

		header, err := resolveHeader(cmd, s)
		if err != nil {
			return err
		}
		if err := out.print(headerOutput{Name: header.Name, Value: header.Value}, header.String()); err != nil {
			return err
		}
	}

	return out.close()
}

func resolveHeader(cmd *cobra.Command, s *session) (auth.Header, error) {
	ctx, cancel := s.refreshContext(cmd.Context())
	defer cancel()

	header, err := s.provider.AccessHeader(ctx)
	if err != nil {
		return auth.Header{}, fmt.Errorf("failed to resolve header: %w", err)
	}
	return *header, nil
}
