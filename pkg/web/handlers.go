// Package web provides the HTTP ingestion surface of the automation engine.
package web

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/zapdesk/automata/pkg/engine"
	"github.com/zapdesk/automata/pkg/events"
	"github.com/zapdesk/automata/pkg/persistence"
)

type APIHandlers struct {
	engine      *engine.Engine
	sessionRepo persistence.SessionRepository
}

func NewAPIHandlers(eng *engine.Engine, sessionRepo persistence.SessionRepository) *APIHandlers {
	return &APIHandlers{
		engine:      eng,
		sessionRepo: sessionRepo,
	}
}

// IngestEvent accepts one domain event and returns the dispatched outcomes.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var event events.DomainEvent
	if err := c.Bind().JSON(&event); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	outcomes, err := h.engine.IngestDomainEvent(c.Context(), event)
	if err != nil {
		if isValidationError(err) {
			return badRequest(c, err.Error())
		}

		return handleEngineError(c, err)
	}

	return c.JSON(IngestResponse{Outcomes: outcomes})
}

// IngestMessage accepts one inbound conversation message and routes it
// through the flow executor.
func (h *APIHandlers) IngestMessage(c fiber.Ctx) error {
	var msg events.InboundMessage
	if err := c.Bind().JSON(&msg); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	outcomes, err := h.engine.IngestInboundMessage(c.Context(), msg)
	if err != nil {
		if isValidationError(err) {
			return badRequest(c, err.Error())
		}

		return handleEngineError(c, err)
	}

	return c.JSON(IngestResponse{Outcomes: outcomes})
}

// Sweep removes expired sessions and reports which were ended. The cron
// sweeper calls the same engine method; this endpoint exists for operators.
func (h *APIHandlers) Sweep(c fiber.Ctx) error {
	expired, err := h.engine.SweepExpiredSessions(c.Context())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(SweepResponse{Expired: expired})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checkers := h.engine.HealthCheck(c.Context())

	repoCheck := "ok"
	if err := h.sessionRepo.HealthCheck(c.Context()); err != nil {
		repoCheck = err.Error()
	}

	checkers["sessions"] = repoCheck

	status := "healthy"
	httpStatus := http.StatusOK

	for _, check := range checkers {
		if check != "ok" {
			status = "unhealthy"
			httpStatus = http.StatusInternalServerError
		}
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"checkers":  checkers,
		"timestamp": time.Now().UTC(),
	})
}
