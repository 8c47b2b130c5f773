// Worker entry point: consumes screening jobs from Kafka, runs every check
// and publishes the reports to the result topic.
package main

import (
	"context"
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

const defaultWorkerConfigPath = "configs/config.yaml"

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	consumers := flag.Int("consumers", 0, "number of job consumers (default: kafka.concurrency)")
	healthPort := flag.Int("health-port", 0, "health and metrics port (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(*configPath); statErr != nil {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *healthPort > 0 {
		cfg.Worker.HealthPort = *healthPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	n := cfg.Kafka.Concurrency
	if *consumers > 0 {
		n = *consumers
	}
	if err := run(cfg, n, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, consumers int, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka must be enabled to run the worker")
	}
	logger.Info("starting trademark screening worker",
		logging.String("version", Version),
		logging.String("topic", cfg.Kafka.WorkerTopic),
		logging.Int("consumers", consumers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.StartScreeningConsumers(ctx, consumers); err != nil {
		return fmt.Errorf("start screening consumers: %w", err)
	}

	probeCfg := cfg.Server
	probeCfg.Port = cfg.Worker.HealthPort
	probe := httpserver.NewServer(probeCfg, c.ProbeRouter(Version), logger.Named("probe"))
	errCh := make(chan error, 1)
	go func() { errCh <- probe.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down worker")
	// Closing the container stops the consumers after their in-flight
	// messages are handled.
	if err := probe.Stop(context.Background()); err != nil {
		logger.Warn("health server shutdown failed", logging.Err(err))
	}
	return nil
}
