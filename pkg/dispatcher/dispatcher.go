package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/registry"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 2 * time.Second
)

// Dispatcher resolves an action adapter per request and drives it to a
// structured outcome. Transient failures are retried with exponential
// backoff inside the dispatcher; callers never retry themselves.
type Dispatcher struct {
	registry  *registry.Registry
	logger    *slog.Logger
	attempts  int
	baseDelay time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher with the default retry budget of three
// attempts starting at a two second delay.
func NewDispatcher(reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  reg,
		logger:    logger.With("module", "action_dispatcher"),
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
		sleep:     sleepContext,
	}
}

// Dispatch runs one request to completion. The outcome reports success, the
// attempt count and the final error, never panicking or raising: a failed
// action must not corrupt session or rule state.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ActionRequest) models.ActionOutcome {
	outcome := models.ActionOutcome{
		ID:      "out-" + uuid.New().String()[:8],
		Request: req,
	}

	logger := d.logger.With(
		"outcome_id", outcome.ID,
		"action_type", req.Type,
		"company_id", req.CompanyID,
	)

	action, err := d.registry.CreateAction(req.Type)
	if err != nil {
		logger.ErrorContext(ctx, "No adapter for action", "error", err)

		outcome.Attempts = 0
		outcome.Error = Permanent(err).Error()
		outcome.CompletedAt = time.Now().UTC()

		return outcome
	}

	var lastErr error

	for attempt := 1; attempt <= d.attempts; attempt++ {
		outcome.Attempts = attempt

		if attempt > 1 {
			delay := d.baseDelay << (attempt - 2)

			logger.InfoContext(ctx, "Retrying action",
				"attempt", attempt, "delay", delay.String())

			if err := d.sleep(ctx, delay); err != nil {
				lastErr = err

				break
			}
		}

		result, err := action.Execute(ctx, req, logger)
		if err == nil {
			logger.InfoContext(ctx, "Action completed", "result", result)

			outcome.Success = true
			outcome.CompletedAt = time.Now().UTC()

			return outcome
		}

		lastErr = err

		if !IsTransient(err) {
			logger.ErrorContext(ctx, "Action failed permanently", "error", err)

			break
		}

		logger.WarnContext(ctx, "Action failed, may retry",
			"attempt", attempt, "error", err)
	}

	outcome.Error = lastErr.Error()
	outcome.CompletedAt = time.Now().UTC()

	return outcome
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
