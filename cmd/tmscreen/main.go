// Command tmscreen is the operator CLI of the trademark screening service.
package main

import (
	"context"
	"os"

	"github.com/turtacn/trademark-screening/internal/application/screening"
	"github.com/turtacn/trademark-screening/internal/bootstrap"
	"github.com/turtacn/trademark-screening/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(dependencies()); err != nil {
		os.Exit(1)
	}
}

func dependencies() cli.Dependencies {
	return cli.Dependencies{
		Engine: func(cc *cli.CLIContext) (screening.Service, cli.ReportRecorder, func(), error) {
			c, err := bootstrap.New(cc.Config, cc.Logger)
			if err != nil {
				return nil, nil, nil, err
			}
			engine, err := c.Engine()
			if err != nil {
				c.Close()
				return nil, nil, nil, err
			}
			return engine, c.Metrics, c.Close, nil
		},
		Migrator: func(cc *cli.CLIContext) cli.Migrator {
			return postgres.NewMigrator(cc.Config.Postgres, cc.Logger)
		},
		Topics: func(ctx context.Context, cc *cli.CLIContext) (cli.TopicManager, error) {
			return kafka.NewTopicManager(ctx, cc.Config.Kafka.Brokers, cc.Logger)
		},
	}
}
