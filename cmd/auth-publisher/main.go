// file: cmd/auth-publisher/main.go

package main

import (
	"fmt"
	"log"

	flag "github.com/spf13/pflag"

	"auth-refresher/internal/authmgr"
	"auth-refresher/internal/lifecycle"
	"auth-refresher/internal/logger"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.StringP("config", "c", "config/auth-publisher.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("auth-publisher", version)
		return nil
	}

	// The first load decides the logger; reloads only rebuild the app
	cfg, err := authmgr.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	appLogger.Info("auth-publisher starting", "version", version, "config", *configPath)

	first := true
	createApp := func() (lifecycle.Application, error) {
		if !first {
			cfg, err = authmgr.Load(*configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to reload config: %w", err)
			}
		}
		first = false

		app, err := authmgr.NewApp(cfg, appLogger)
		if err != nil {
			return nil, err
		}
		return app, nil
	}

	return lifecycle.RunWithReload(createApp, appLogger)
}
