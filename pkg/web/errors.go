package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/zapdesk/automata/pkg/sessions"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps engine errors onto problem responses. Lock timeouts
// are transient: the whole message is safe to retry, so clients get a 503.
func handleEngineError(c fiber.Ctx, err error) error {
	if errors.Is(err, sessions.ErrLockTimeout) {
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("conversation_busy").
			WithDetail("conversation is busy, retry the message")

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
	}

	return internalError(c, err)
}
