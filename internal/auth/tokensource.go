// file: internal/auth/tokensource.go

package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts a Provider to oauth2.TokenSource so it can back an
// oauth2.Transport. The provider keeps deciding when to refresh; the oauth2
// token only mirrors the cached credential.
func (p *Provider) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &providerTokenSource{ctx: ctx, provider: p}
}

type providerTokenSource struct {
	ctx      context.Context
	provider *Provider
}

func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.provider.Token(s.ctx)
	if err != nil {
		return nil, err
	}

	out := &oauth2.Token{
		AccessToken: token.Value,
		TokenType:   s.provider.Scheme().String(),
	}
	if expiry, ok := token.ExpiresAt(); ok {
		out.Expiry = expiry
	}
	return out, nil
}
