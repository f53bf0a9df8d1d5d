// file: internal/authmgr/providers/provider.go

package providers

import (
	"context"
	"time"

	"auth-refresher/internal/auth"
)

// Provider is a credential source the publisher pushes to the KV bucket
type Provider interface {
	// ID returns the unique identifier for this provider
	ID() string

	// KVKey returns the key the token record is stored under
	KVKey() string

	// GetToken returns a usable token, refreshing only when the cached one
	// has run out
	GetToken(ctx context.Context) (auth.Token, error)

	// Scheme returns the authorization scheme the token is used with
	Scheme() auth.Scheme

	// Schedule returns how often the token is published
	Schedule() Schedule
}

// Schedule is either a fixed interval or a cron expression
type Schedule struct {
	Every time.Duration
	Cron  string
}

// String describes the schedule for logs
func (s Schedule) String() string {
	if s.Cron != "" {
		return "cron(" + s.Cron + ")"
	}
	return "every " + s.Every.String()
}

// CommandProvider publishes tokens obtained from a refresh command
type CommandProvider struct {
	id       string
	kvKey    string
	schedule Schedule
	timeout  time.Duration
	provider *auth.Provider
}

// NewCommandProvider wraps a credential provider. timeout bounds one refresh
// command run; zero leaves it to the caller's context.
func NewCommandProvider(id, kvKey string, provider *auth.Provider, schedule Schedule, timeout time.Duration) *CommandProvider {
	return &CommandProvider{
		id:       id,
		kvKey:    kvKey,
		schedule: schedule,
		timeout:  timeout,
		provider: provider,
	}
}

// ID returns the provider identifier
func (p *CommandProvider) ID() string {
	return p.id
}

// KVKey returns the storage key
func (p *CommandProvider) KVKey() string {
	return p.kvKey
}

// GetToken returns the provider's current token
func (p *CommandProvider) GetToken(ctx context.Context) (auth.Token, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.provider.Token(ctx)
}

// Scheme returns the provider's scheme
func (p *CommandProvider) Scheme() auth.Scheme {
	return p.provider.Scheme()
}

// Schedule returns the publish schedule
func (p *CommandProvider) Schedule() Schedule {
	return p.schedule
}
