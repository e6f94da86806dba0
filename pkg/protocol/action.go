// Package protocol defines the interfaces between the engine core and its
// pluggable action adapters and external collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/zapdesk/automata/pkg/models"
)

// Action executes one capability against an external collaborator. Errors
// are classified by the dispatcher into transient (retried) and permanent
// (recorded and dropped); adapters wrap them accordingly.
type Action interface {
	Execute(ctx context.Context, req models.ActionRequest, logger *slog.Logger) (map[string]any, error)
}

// ActionFactory builds the action adapter for one action type.
type ActionFactory interface {
	ID() models.ActionType
	Create() (Action, error)
}

// Dispatcher runs an action request to completion, retries included, and
// reports a structured outcome instead of raising.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.ActionRequest) models.ActionOutcome
}
