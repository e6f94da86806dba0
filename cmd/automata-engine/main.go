package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/zapdesk/automata/pkg/log"
)

const defaultPort = 9190

func main() {
	logger := log.WithModule("engine")

	cmd := &cli.Command{
		Name:                  "automata-engine",
		Usage:                 "Run the business automation engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the ingestion API on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "catalog-path",
				Usage:    "Directory holding per-company rule and flow definitions",
				Required: true,
				Sources:  cli.EnvVars("CATALOG_PATH"),
			},
			&cli.StringFlag{
				Name:    "sessions-url",
				Usage:   "Session store URL (redis:// or memory://)",
				Value:   "memory://",
				Sources: cli.EnvVars("SESSIONS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Audit event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers for the audit bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Usage:   "Gateway endpoint outbound messages are posted to",
				Sources: cli.EnvVars("WEBHOOK_URL"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for the session timeout sweep",
				Value:   "@every 60s",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing automation engine")

			app := NewApp(logger, command)

			return app.Run(ctx)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
