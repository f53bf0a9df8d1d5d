// file: internal/authmgr/manager.go

package authmgr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"auth-refresher/internal/auth"
	"auth-refresher/internal/authmgr/providers"
	"auth-refresher/internal/logger"
)

const (
	// defaultRefreshTimeout bounds a single refresh command run when the
	// provider config does not set one
	defaultRefreshTimeout = 30 * time.Second

	// minPublishInterval is the shortest accepted refreshEvery
	minPublishInterval = 1 * time.Second

	// publishTimeout bounds a whole publish cycle, including the KV write
	publishTimeout = 45 * time.Second
)

// Manager publishes each provider's token to the token store on the
// provider's schedule. Providers stay lazy: a publish only runs the refresh
// command when the cached token can no longer be handed out.
type Manager struct {
	store     TokenStore
	providers []providers.Provider
	logger    *logger.Logger
	metrics   *Metrics
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewManager creates a new publish manager
func NewManager(store TokenStore, providerList []providers.Provider, log *logger.Logger, metrics *Metrics) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(log.Named("scheduler")))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		store:     store,
		providers: providerList,
		logger:    log,
		metrics:   metrics,
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start schedules one job per provider. Every job runs once immediately.
func (m *Manager) Start() error {
	m.logger.Info("starting auth publisher", "providers", len(m.providers))

	for _, p := range m.providers {
		definition, err := jobDefinition(p.Schedule())
		if err != nil {
			return fmt.Errorf("provider %s: %w", p.ID(), err)
		}

		_, err = m.scheduler.NewJob(
			definition,
			gocron.NewTask(m.runPublish, p),
			gocron.WithName(p.ID()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("provider %s: failed to schedule publish job: %w", p.ID(), err)
		}

		m.logger.Info("publish schedule established",
			"provider", p.ID(),
			"schedule", p.Schedule().String(),
			"kvKey", p.KVKey())
	}

	m.scheduler.Start()
	return nil
}

// runPublish is the scheduled task; failures are logged and retried on the
// next tick
func (m *Manager) runPublish(p providers.Provider) {
	if err := m.Publish(m.ctx, p); err != nil {
		m.logger.Error("publish failed",
			"provider", p.ID(),
			"error", err,
			"nextAttempt", p.Schedule().String())
	}
}

// Publish obtains the provider's current token and stores its record.
// Single-use tokens are logged and skipped, never written.
func (m *Manager) Publish(ctx context.Context, p providers.Provider) error {
	providerID := p.ID()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	token, err := p.GetToken(ctx)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncPublishFailure(providerID)
		}
		return fmt.Errorf("failed to get token: %w", err)
	}

	// A shared bucket would let every reader reuse a token meant for one request
	if token.Lifespan.Kind() == auth.LifespanSingleUse {
		m.logger.Warn("single-use token not published",
			"provider", providerID,
			"kvKey", p.KVKey())
		if m.metrics != nil {
			m.metrics.IncPublishSkipped(providerID)
		}
		return nil
	}

	record, err := auth.NewTokenRecord(providerID, p.Scheme(), token).Marshal()
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncPublishFailure(providerID)
		}
		return err
	}

	if err := m.store.StoreToken(ctx, p.KVKey(), record); err != nil {
		if m.metrics != nil {
			m.metrics.IncKVStoreFailure(providerID)
		}
		return fmt.Errorf("failed to store token: %w", err)
	}

	duration := time.Since(start)
	m.logger.Info("token published",
		"provider", providerID,
		"lifespan", token.Lifespan.String(),
		"duration", duration)

	if m.metrics != nil {
		m.metrics.IncPublishSuccess(providerID)
		m.metrics.ObservePublishDuration(providerID, duration.Seconds())
	}

	return nil
}

// Stop cancels in-flight publishes and shuts the scheduler down
func (m *Manager) Stop() error {
	m.logger.Info("stopping auth publisher")

	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	m.logger.Info("auth publisher stopped")
	return nil
}

func jobDefinition(s providers.Schedule) (gocron.JobDefinition, error) {
	switch {
	case s.Cron != "":
		return gocron.CronJob(s.Cron, false), nil
	case s.Every > 0:
		return gocron.DurationJob(s.Every), nil
	default:
		return nil, fmt.Errorf("schedule has neither interval nor cron expression")
	}
}
