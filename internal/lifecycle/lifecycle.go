// file: internal/lifecycle/lifecycle.go

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth-refresher/internal/logger"
)

// RunWithReload runs an application until SIGTERM/SIGINT or a fatal error.
// On SIGHUP the running instance is closed and createApp is called again, so
// configuration changes take effect without a restart. Cached tokens do not
// survive a reload.
//
// If createApp fails (initially or on reload) the error is returned and the
// process is expected to exit.
func RunWithReload(
	createApp func() (Application, error),
	log *logger.Logger,
) error {
	reloadCount := 0

	for {
		if reloadCount > 0 {
			log.Info("initiating application reload", "reloadCount", reloadCount)
		}

		shutdownSig := make(chan os.Signal, 1)
		reloadSig := make(chan os.Signal, 1)
		signal.Notify(shutdownSig, os.Interrupt, syscall.SIGTERM)
		signal.Notify(reloadSig, syscall.SIGHUP)

		stopSignals := func() {
			signal.Stop(shutdownSig)
			signal.Stop(reloadSig)
		}

		startTime := time.Now()
		application, err := createApp()
		if err != nil {
			stopSignals()
			if reloadCount > 0 {
				log.Error("failed to reload application",
					"reloadCount", reloadCount,
					"error", err)
			}
			return fmt.Errorf("failed to create application: %w", err)
		}

		if reloadCount > 0 {
			log.Info("application reload completed",
				"reloadCount", reloadCount,
				"duration", time.Since(startTime))
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- application.Run(ctx)
		}()

		var (
			shouldReload bool
			runErr       error
		)

		select {
		case sig := <-shutdownSig:
			log.Info("shutdown signal received", "signal", sig.String())

		case <-reloadSig:
			log.Info("SIGHUP received - reloading configuration")
			shouldReload = true
			reloadCount++

		case runErr = <-errCh:
			if runErr != nil {
				log.Error("application stopped with error",
					"error", runErr,
					"reloadCount", reloadCount)
			}
		}

		cancel()
		stopSignals()

		closeStart := time.Now()
		if closeErr := application.Close(); closeErr != nil {
			log.Error("error during application close",
				"error", closeErr,
				"duration", time.Since(closeStart))
		} else {
			log.Info("application closed", "duration", time.Since(closeStart))
		}

		if !shouldReload {
			log.Info("shutdown complete")
			return runErr
		}
	}
}
