// file: cmd/authctl/cmd/token.go
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"auth-refresher/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Refresh the credential and print its token record",
		Long: `The token command runs the refresh command and prints what it produced:
scheme, token, lifespan, issue time and expiry. The token value is masked
unless --reveal is given. --oauth2 prints the token as an oauth2 client would
see it instead.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}

	cmd.Flags().StringP("output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().Bool("reveal", false, "Print the raw token value instead of a masked prefix")
	cmd.Flags().Bool("oauth2", false, "Print the token as an OAuth2 token (access_token, token_type, expiry)")
	return cmd
}

// oauth2Output is the subset of oauth2.Token a client needs to reuse it
type oauth2Output struct {
	AccessToken string     `json:"access_token" yaml:"access_token"`
	TokenType   string     `json:"token_type" yaml:"token_type"`
	Expiry      *time.Time `json:"expiry,omitempty" yaml:"expiry,omitempty"`
}

func runToken(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	reveal, _ := cmd.Flags().GetBool("reveal")
	asOAuth2, _ := cmd.Flags().GetBool("oauth2")

	out, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := s.refreshContext(cmd.Context())
	defer cancel()

	if asOAuth2 {
		if err := printOAuth2Token(ctx, s.provider, out, reveal); err != nil {
			return err
		}
		return out.close()
	}

	token, err := s.provider.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	record := auth.NewTokenRecord(s.provider.Name(), s.provider.Scheme(), token)
	if !reveal {
		record = record.Masked()
	}

	if err := out.print(record, formatRecord(record)); err != nil {
		return err
	}
	return out.close()
}

// printOAuth2Token resolves the token through the provider's oauth2
// TokenSource, the view an oauth2.Transport would get
func printOAuth2Token(ctx context.Context, provider *auth.Provider, out *printer, reveal bool) error {
	tok, err := provider.TokenSource(ctx).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	o := oauth2Output{AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	if !reveal {
		o.AccessToken = auth.MaskToken(o.AccessToken)
	}
	expires := "never"
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		o.Expiry = &expiry
		expires = expiry.Format(time.RFC3339)
	}

	text := fmt.Sprintf("access_token: %s\ntoken_type:   %s\nexpiry:       %s", o.AccessToken, o.TokenType, expires)
	return out.print(o, text)
}

func formatRecord(r auth.TokenRecord) string {
	expires := "never"
	if r.ExpiresAt != nil {
		expires = r.ExpiresAt.Format(time.RFC3339)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "provider:  %s\n", r.Provider)
	fmt.Fprintf(&b, "scheme:    %s\n", r.Scheme)
	fmt.Fprintf(&b, "token:     %s\n", r.Token)
	fmt.Fprintf(&b, "lifespan:  %s\n", r.Lifespan)
	fmt.Fprintf(&b, "issuedAt:  %s\n", r.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "expiresAt: %s", expires)
	return b.String()
}
