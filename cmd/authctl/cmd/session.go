// file: cmd/authctl/cmd/session.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"auth-refresher/config"
	"auth-refresher/internal/auth"
	"auth-refresher/internal/logger"
	"auth-refresher/internal/metrics"
)

// session is the provider and its supporting pieces for one CLI invocation
type session struct {
	cfg      *config.Config
	provider *auth.Provider
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// newSession loads configuration, applies flag overrides and builds the
// provider
func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("command") {
		cfg.Credential.RefreshCommand, _ = flags.GetString("command")
	}
	if flags.Changed("scheme") {
		cfg.Credential.Scheme, _ = flags.GetString("scheme")
	}
	if flags.Changed("timeout") {
		cfg.Credential.RefreshTimeout, _ = flags.GetDuration("timeout")
		if cfg.Credential.RefreshTimeout < 0 {
			return nil, fmt.Errorf("--timeout cannot be negative: %s", cfg.Credential.RefreshTimeout)
		}
	}

	log := logger.NewNopLogger()
	if verbose, _ := flags.GetBool("verbose"); verbose {
		logCfg := cfg.Logging
		// stdout carries the command's output
		if logCfg.OutputPath == "stdout" {
			logCfg.OutputPath = "stderr"
		}
		if log, err = logger.NewLogger(&logCfg); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	provider, err := auth.New(cfg.Credential.Scheme, cfg.Credential.RefreshCommand,
		auth.WithLogger(log),
		auth.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, provider: provider, metrics: m, logger: log}, nil
}

// refreshContext bounds a single access by the configured refresh timeout
func (s *session) refreshContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Credential.RefreshTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.Credential.RefreshTimeout)
	}
	return context.WithCancel(parent)
}

// serveMetrics exposes the session's metrics while the command runs, when
// enabled in config. The returned func stops the server.
func (s *session) serveMetrics(ctx context.Context) func() {
	if !s.cfg.Metrics.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	server := &http.Server{
		Addr:              s.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	collector := metrics.NewMetricsCollector(s.metrics, s.cfg.Metrics.UpdateInterval)
	collector.Start(ctx)

	go func() {
		s.logger.Info("metrics server listening", "address", s.cfg.Metrics.Address, "path", s.cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		collector.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}
}

func (s *session) close() {
	if refreshes, failures := s.metrics.GetStats(); refreshes > 0 {
		s.logger.Debug("session finished", "refreshes", refreshes, "failures", failures)
	}
	_ = s.logger.Sync()
}
