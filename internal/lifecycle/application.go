// file: internal/lifecycle/application.go

// Package lifecycle runs long-lived processes with graceful shutdown on
// SIGTERM/SIGINT and a full rebuild on SIGHUP.
package lifecycle

import "context"

// Application is a runnable unit that can be torn down and rebuilt. The
// auth-publisher implements it so a SIGHUP re-reads provider configuration.
type Application interface {
	// Run starts the application and blocks until the context is cancelled.
	// Returns an error on fatal failure; normal shutdown returns nil.
	Run(ctx context.Context) error

	// Close stops scheduled work, closes connections and servers. Called
	// once after Run returns or its context is cancelled.
	Close() error
}
