// Package main provides the automation engine server binary.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/zapdesk/automata/pkg/adapters/logcrm"
	"github.com/zapdesk/automata/pkg/adapters/webhookout"
	"github.com/zapdesk/automata/pkg/cmd"
	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/engine"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/otelhelper"
	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/sessions"
	"github.com/zapdesk/automata/pkg/web"
)

const shutdownTimeout = 10 * time.Second

// App wires the engine from CLI configuration and runs the ingestion API
// plus the session timeout sweeper until interrupted.
type App struct {
	logger  *slog.Logger
	command *cli.Command
}

func NewApp(logger *slog.Logger, command *cli.Command) *App {
	return &App{logger: logger, command: command}
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := cmd.NewCatalog(a.command.String("catalog-path"), a.logger)

	sessionRepo := cmd.NewSessionRepository(ctx, a.logger, a.command.String("sessions-url"))
	defer func() {
		if err := sessionRepo.Close(context.Background()); err != nil {
			a.logger.Error("Failed to close session store", "error", err)
		}
	}()

	bus := cmd.NewEventBus(a.command.String("event-bus"), a.command.String("kafka-brokers"), a.logger)
	defer func() {
		if err := bus.Close(); err != nil {
			a.logger.Error("Failed to close event bus", "error", err)
		}
	}()

	var tracer trace.Tracer

	if a.command.Bool("tracing") {
		var err error

		tracer, err = otelhelper.NewTracer(ctx, "automata-engine")
		if err != nil {
			return err
		}
	}

	crm := logcrm.NewService(a.logger)
	reg := cmd.NewRegistry(a.logger, a.messenger(), crm, catalog)
	manager := sessions.NewManager(sessionRepo, a.logger)

	eng := engine.New(engine.Config{
		Catalog:    catalog,
		Sessions:   manager,
		Registry:   reg,
		Dispatcher: dispatcher.NewDispatcher(reg, a.logger),
		Bus:        bus,
		Tracer:     tracer,
		Logger:     a.logger,
	})

	sweeper := cron.New()

	_, err := sweeper.AddFunc(a.command.String("sweep-schedule"), func() {
		if _, err := eng.SweepExpiredSessions(context.Background()); err != nil {
			a.logger.Error("Session sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	sweeper.Start()
	defer sweeper.Stop()

	app := a.buildRouter(eng, sessionRepo)

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":" + strconv.Itoa(a.command.Int("port")))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return app.ShutdownWithContext(shutdownCtx)
	}
}

func (a *App) buildRouter(eng *engine.Engine, sessionRepo persistence.SessionRepository) *fiber.App {
	handlers := web.NewAPIHandlers(eng, sessionRepo)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automata Engine")
	})

	v1 := app.Group("/v1")
	v1.Post("/events", handlers.IngestEvent)
	v1.Post("/messages", handlers.IngestMessage)
	v1.Post("/sweep", handlers.Sweep)

	app.Get("/health", handlers.HealthCheck)

	return app
}

// messenger returns the outbound channel adapter. Without a webhook URL
// configured, deliveries are logged and dropped, which suits local runs.
func (a *App) messenger() protocol.Messenger {
	url := a.command.String("webhook-url")
	if url != "" {
		return webhookout.NewMessenger(url, a.logger)
	}

	a.logger.Warn("No webhook URL configured, outbound messages will only be logged")

	return &logMessenger{logger: a.logger.With("module", "log_messenger")}
}

type logMessenger struct {
	logger *slog.Logger
}

func (m *logMessenger) SendMessage(ctx context.Context, companyID, conversationID string, content models.MessageContent) error {
	m.logger.InfoContext(ctx, "Outbound message",
		"company_id", companyID, "conversation_id", conversationID, "message_id", content.ID, "body", content.Body)

	return nil
}
