// Package engine is the facade the service layer talks to: it ingests domain
// events and inbound messages, runs the matching and flow machinery, and
// sweeps expired sessions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zapdesk/automata/pkg/eventbus"
	"github.com/zapdesk/automata/pkg/events"
	"github.com/zapdesk/automata/pkg/flow"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/otelhelper"
	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/registry"
	"github.com/zapdesk/automata/pkg/rules"
	"github.com/zapdesk/automata/pkg/sessions"
)

// Engine wires the rule matcher, flow executor, session manager and action
// dispatcher behind one ingestion surface. It is safe for concurrent use:
// per-conversation ordering is enforced by the session manager, everything
// else is stateless.
type Engine struct {
	catalog    persistence.Catalog
	sessions   *sessions.Manager
	registry   *registry.Registry
	dispatcher protocol.Dispatcher
	matcher    *rules.Matcher
	executor   *flow.Executor
	bus        eventbus.EventPublisher
	tracer     trace.Tracer
	validate   *validator.Validate
	logger     *slog.Logger

	now func() time.Time
}

// Config carries the collaborators an engine is built from. Bus and Tracer
// are optional.
type Config struct {
	Catalog    persistence.Catalog
	Sessions   *sessions.Manager
	Registry   *registry.Registry
	Dispatcher protocol.Dispatcher
	Bus        eventbus.EventPublisher
	Tracer     trace.Tracer
	Logger     *slog.Logger
}

// New creates an engine from its collaborators.
func New(cfg Config) *Engine {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("automata")
	}

	logger := cfg.Logger.With("module", "engine")

	return &Engine{
		catalog:    cfg.Catalog,
		sessions:   cfg.Sessions,
		registry:   cfg.Registry,
		dispatcher: cfg.Dispatcher,
		matcher:    rules.NewMatcher(cfg.Logger),
		executor:   flow.NewExecutor(cfg.Catalog, cfg.Sessions, cfg.Dispatcher, cfg.Bus, cfg.Logger),
		bus:        cfg.Bus,
		tracer:     tracer,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the engine clock. Mostly for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// IngestDomainEvent matches one business event against the company's rules
// and dispatches the resulting actions. Rules match independently; every
// matching rule produces exactly one outcome, failures included.
func (e *Engine) IngestDomainEvent(ctx context.Context, event events.DomainEvent) ([]models.ActionOutcome, error) {
	if err := e.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("invalid domain event: %w", err)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.ingest_domain_event",
		attribute.String(otelhelper.CompanyIDKey, event.CompanyID),
		attribute.String(otelhelper.EventTypeKey, event.Type),
	)
	defer span.End()

	ruleSet, err := e.catalog.Rules(ctx, event.CompanyID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	requests := e.matcher.Match(event, ruleSet)
	now := e.now()

	e.logger.InfoContext(ctx, "Domain event matched",
		"company_id", event.CompanyID, "event_type", event.Type, "matches", len(requests))

	outcomes := make([]models.ActionOutcome, 0, len(requests))

	for _, req := range requests {
		e.publish(ctx, event.CompanyID, events.RuleMatched{
			BaseEvent: e.newBase(events.RuleMatchedEvent, event.CompanyID, now),
			RuleID:    req.SourceRuleID,
			EventType: event.Type,
		})

		outcome := e.dispatcher.Dispatch(ctx, req)
		outcomes = append(outcomes, outcome)
		e.publishOutcome(ctx, event.CompanyID, outcome, now)
	}

	return outcomes, nil
}

// IngestInboundMessage routes one conversation message through the flow
// executor: resuming the live session if one exists, otherwise scanning
// published flows for a keyword trigger.
func (e *Engine) IngestInboundMessage(ctx context.Context, msg events.InboundMessage) ([]models.ActionOutcome, error) {
	if err := e.validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("invalid inbound message: %w", err)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.ingest_inbound_message",
		attribute.String(otelhelper.CompanyIDKey, msg.CompanyID),
		attribute.String(otelhelper.ConversationIDKey, msg.ConversationID),
	)
	defer span.End()

	outcomes, err := e.executor.Handle(ctx, msg, e.now())
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return outcomes, nil
}

// SweepExpiredSessions removes every session idle past its timeout and
// returns the removed keys. The only timeout action supported is ending the
// flow; removal is exactly that.
func (e *Engine) SweepExpiredSessions(ctx context.Context) ([]models.SessionKey, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.sweep_expired_sessions")
	defer span.End()

	now := e.now()

	expired, err := e.sessions.SweepExpired(ctx, now)
	if err != nil {
		otelhelper.SetError(span, err)

		return expired, err
	}

	for _, key := range expired {
		e.logger.InfoContext(ctx, "Session timed out",
			"company_id", key.CompanyID, "conversation_id", key.ConversationID, "flow_id", key.FlowID)
		e.publish(ctx, key.CompanyID, events.SessionTimedOut{
			BaseEvent: e.newBase(events.SessionTimedOutEvent, key.CompanyID, now),
			Key:       key,
		})
	}

	return expired, nil
}

// HealthCheck reports on the engine's collaborators.
func (e *Engine) HealthCheck(ctx context.Context) map[string]string {
	health := make(map[string]string)

	if message, ok := e.registry.HealthCheck(); ok {
		health["registry"] = "ok"
	} else {
		health["registry"] = message
	}

	return health
}

func (e *Engine) publishOutcome(ctx context.Context, companyID string, outcome models.ActionOutcome, now time.Time) {
	if outcome.Success {
		e.publish(ctx, companyID, events.ActionDispatched{
			BaseEvent: e.newBase(events.ActionDispatchedEvent, companyID, now),
			Outcome:   outcome,
		})

		return
	}

	e.publish(ctx, companyID, events.ActionFailed{
		BaseEvent: e.newBase(events.ActionFailedEvent, companyID, now),
		Outcome:   outcome,
	})
}

func (e *Engine) publish(ctx context.Context, companyID string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, companyID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish audit event",
			"event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) newBase(eventType events.EventType, companyID string, now time.Time) events.BaseEvent {
	return events.BaseEvent{
		ID:        "evt-" + uuid.New().String()[:8],
		Type:      eventType,
		CompanyID: companyID,
		Timestamp: now,
	}
}
