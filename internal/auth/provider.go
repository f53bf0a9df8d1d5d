// file: internal/auth/provider.go

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"auth-refresher/internal/logger"
	"auth-refresher/internal/metrics"
)

// DefaultProviderName labels logs and metrics when WithName is not given
const DefaultProviderName = "default"

// ErrRefreshDisabled is returned by Token when the provider has no refresh
// command
var ErrRefreshDisabled = errors.New("no refresh command configured")

// Provider produces Authorization headers, refreshing its token through an
// external command only when the cached one can no longer be used.
//
// All access goes through one mutex held across check, refresh and store, so
// concurrent callers never start more than one refresh at a time and always
// observe a complete token.
type Provider struct {
	name      string
	scheme    Scheme
	command   string
	refresher Refresher
	clock     clockwork.Clock
	logger    *logger.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	cached *Token
}

// Option configures a Provider
type Option func(*Provider)

// WithName sets the name used in logs and metric labels
func WithName(name string) Option {
	return func(p *Provider) {
		if name != "" {
			p.name = name
		}
	}
}

// WithClock replaces the clock used for issuance and staleness checks
func WithClock(clock clockwork.Clock) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithMetrics enables metrics collection
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithRefresher replaces the subprocess invoker
func WithRefresher(r Refresher) Option {
	return func(p *Provider) {
		if r != nil {
			p.refresher = r
		}
	}
}

// New parses schemeName and creates a provider for refreshCommand
func New(schemeName, refreshCommand string, opts ...Option) (*Provider, error) {
	scheme, err := ParseScheme(schemeName)
	if err != nil {
		return nil, err
	}
	return NewWithScheme(scheme, refreshCommand, opts...), nil
}

// NewWithScheme creates a provider. An empty refreshCommand yields a provider
// that never refreshes and never emits a header.
func NewWithScheme(scheme Scheme, refreshCommand string, opts ...Option) *Provider {
	p := &Provider{
		name:    DefaultProviderName,
		scheme:  scheme,
		command: refreshCommand,
		clock:   clockwork.NewRealClock(),
		logger:  logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With("provider", p.name)
	if p.refresher == nil {
		p.refresher = NewCommandInvoker(p.clock, p.logger)
	}

	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Scheme returns the authorization scheme
func (p *Provider) Scheme() Scheme {
	return p.scheme
}

// Enabled reports whether the provider has a refresh command
func (p *Provider) Enabled() bool {
	return p.command != ""
}

// AccessHeader returns the Authorization header for the next request. It
// returns nil and no error when the provider has no refresh command.
// Refresh errors are returned as is; no stale token is ever substituted.
func (p *Provider) AccessHeader(ctx context.Context) (*Header, error) {
	if !p.Enabled() {
		return nil, nil
	}

	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.IncHeadersIssued(p.name)
	}

	header := NewHeader(p.scheme, token.Value)
	return &header, nil
}

// Token returns a usable token, reusing the cached one when its lifespan
// allows and running the refresh command otherwise.
func (p *Provider) Token(ctx context.Context) (Token, error) {
	if !p.Enabled() {
		return Token{}, ErrRefreshDisabled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && !p.cached.stale(p.clock.Now()) {
		if p.metrics != nil {
			p.metrics.IncCacheHit(p.name)
		}
		return *p.cached, nil
	}

	token, err := p.refresh(ctx)
	if err != nil {
		return Token{}, err
	}

	p.cached = &token
	return token, nil
}

// Cached returns a copy of the cached token, if any
func (p *Provider) Cached() (Token, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached == nil {
		return Token{}, false
	}
	return *p.cached, true
}

// Invalidate drops the cached token so the next access refreshes
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()

	p.logger.Debug("cached token invalidated")
}

// refresh must be called with p.mu held
func (p *Provider) refresh(ctx context.Context) (Token, error) {
	refreshID := uuid.NewString()
	reason := "empty"
	if p.cached != nil {
		reason = p.cached.Lifespan.Kind().reason()
	}

	p.logger.Debug("refreshing token",
		"refreshID", refreshID,
		"reason", reason)

	start := p.clock.Now()
	token, err := p.refresher.Refresh(ctx, p.command)
	duration := p.clock.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveRefreshDuration(p.name, duration.Seconds())
	}

	if err != nil {
		if p.metrics != nil {
			p.metrics.IncRefresh(p.name, metrics.ResultError)
		}
		p.logger.Error("token refresh failed",
			"refreshID", refreshID,
			"duration", duration,
			"error", err)
		return Token{}, err
	}

	if p.metrics != nil {
		p.metrics.IncRefresh(p.name, metrics.ResultSuccess)
		var expiry float64
		if at, ok := token.ExpiresAt(); ok {
			expiry = float64(at.Unix())
		}
		p.metrics.SetTokenExpiry(p.name, expiry)
	}

	p.logger.Debug("token refreshed",
		"refreshID", refreshID,
		"lifespan", token.Lifespan.String(),
		"token", MaskToken(token.Value),
		"duration", duration)

	return token, nil
}

func (k LifespanKind) reason() string {
	switch k {
	case LifespanSingleUse:
		return "single-use"
	case LifespanSeconds:
		return "half-life elapsed"
	default:
		return "invalidated"
	}
}
