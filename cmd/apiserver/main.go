// API server entry point for the trademark screening service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/trademark-screening/internal/bootstrap"
	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/trademark-screening/internal/interfaces/http"
)

const defaultConfigPath = "configs/config.yaml"

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, fromFile, logger); err != nil {
		logger.Error("API server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configFile string, logger logging.Logger) error {
	logger.Info("starting trademark screening API server",
		logging.String("version", Version),
		logging.Int("http_port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	router, err := c.Router(ctx, Version)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	if err := c.StartResultsConsumer(ctx); err != nil {
		if !errors.Is(err, bootstrap.ErrDisabled) {
			return fmt.Errorf("start results consumer: %w", err)
		}
		logger.Warn("results consumer disabled", logging.Err(err))
	}
	if err := c.WatchLogLevel(configFile); err != nil {
		logger.Warn("configuration watch unavailable", logging.Err(err))
	}

	srv := httpserver.NewServer(cfg.Server, router, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	return srv.Stop(context.Background())
}

// loadConfig reads path when it exists and otherwise falls back to the
// environment. The returned file name is empty for environment-only
// configurations.
func loadConfig(path string) (*config.Config, string, error) {
	if _, err := os.Stat(path); err != nil {
		cfg, err := config.LoadFromEnv()
		return cfg, "", err
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}
