// file: internal/authmgr/app.go

package authmgr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"auth-refresher/internal/auth"
	"auth-refresher/internal/authmgr/providers"
	"auth-refresher/internal/logger"
	"auth-refresher/internal/metrics"
)

// metricsShutdownTimeout bounds the metrics server shutdown
const metricsShutdownTimeout = 5 * time.Second

// App is one running instance of the auth publisher. A SIGHUP reload builds a
// fresh App from the re-read configuration.
type App struct {
	cfg           *Config
	logger        *logger.Logger
	nats          *NATSClient
	manager       *Manager
	collector     *metrics.MetricsCollector
	metricsServer *http.Server
}

// NewApp wires metrics, the NATS client, providers and the manager
func NewApp(cfg *Config, log *logger.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: log}

	var (
		pubMetrics  *Metrics
		credMetrics *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()

		var err error
		credMetrics, err = metrics.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential metrics: %w", err)
		}
		pubMetrics, err = NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher metrics: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, credMetrics.Handler())
		app.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		app.collector = metrics.NewMetricsCollector(credMetrics, cfg.Metrics.UpdateInterval)
	} else {
		log.Info("metrics are disabled")
	}

	providerList, err := BuildProviders(cfg, log, credMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}

	natsClient, err := NewNATSClient(&cfg.NATS, &cfg.Storage, log, pubMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}
	app.nats = natsClient

	manager, err := NewManager(natsClient, providerList, log, pubMetrics)
	if err != nil {
		natsClient.Close()
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}
	app.manager = manager

	return app, nil
}

// BuildProviders instantiates one credential provider per configured entry
func BuildProviders(cfg *Config, log *logger.Logger, m *metrics.Metrics) ([]providers.Provider, error) {
	var providerList []providers.Provider

	for _, pc := range cfg.Providers {
		credential, err := auth.New(pc.Scheme, pc.Command,
			auth.WithName(pc.ID),
			auth.WithLogger(log.Named("credential")),
			auth.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.ID, err)
		}

		schedule := providers.Schedule{Cron: pc.Schedule}
		if pc.RefreshEvery != "" {
			every, err := time.ParseDuration(pc.RefreshEvery)
			if err != nil {
				return nil, fmt.Errorf("provider %s: invalid refreshEvery: %w", pc.ID, err)
			}
			schedule.Every = every
		}

		providerList = append(providerList,
			providers.NewCommandProvider(pc.ID, pc.KVKey, credential, schedule, pc.RefreshTimeout))

		log.Info("provider configured",
			"id", pc.ID,
			"scheme", credential.Scheme().String(),
			"kvKey", cfg.KeyFor(pc),
			"schedule", schedule.String())
	}

	return providerList, nil
}

// Run starts publishing and blocks until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	if a.collector != nil {
		a.collector.Start(ctx)
	}

	serverErr := make(chan error, 1)
	if a.metricsServer != nil {
		go func() {
			a.logger.Info("starting metrics server", "address", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if err := a.manager.Start(); err != nil {
		return fmt.Errorf("failed to start manager: %w", err)
	}

	a.logger.Info("auth-publisher running",
		"providers", len(a.cfg.Providers),
		"kvBucket", a.cfg.Storage.Bucket)

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return err
	}
}

// Close stops publishing and releases connections
func (a *App) Close() error {
	var errs []error

	if a.manager != nil {
		if err := a.manager.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.collector != nil {
		a.collector.Stop()
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
