// Package crmstage moves a contact to another CRM pipeline stage.
package crmstage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/protocol"
)

var (
	errMissingStage  = errors.New("move_crm_stage requires a stage_id param")
	errMissingTarget = errors.New("move_crm_stage requires a target contact")
)

// Factory builds move-stage actions bound to the CRM collaborator.
type Factory struct {
	crm protocol.CRMService
}

// NewFactory creates the move-stage action factory.
func NewFactory(crm protocol.CRMService) *Factory {
	return &Factory{crm: crm}
}

func (*Factory) ID() models.ActionType {
	return models.ActionMoveCrmStage
}

func (f *Factory) Create() (protocol.Action, error) {
	return &Action{crm: f.crm}, nil
}

// Action moves the target contact to the stage named in the params.
type Action struct {
	crm protocol.CRMService
}

func (a *Action) Execute(ctx context.Context, req models.ActionRequest, logger *slog.Logger) (map[string]any, error) {
	stageID, _ := req.Params["stage_id"].(string)
	if stageID == "" {
		return nil, dispatcher.Permanent(errMissingStage)
	}

	if req.TargetID == "" {
		return nil, dispatcher.Permanent(errMissingTarget)
	}

	if err := a.crm.MoveStage(ctx, req.CompanyID, req.TargetID, stageID); err != nil {
		return nil, dispatcher.Transient(err)
	}

	logger.InfoContext(ctx, "Contact moved",
		"stage_id", stageID, "target_id", req.TargetID)

	return map[string]any{"stage_id": stageID, "target_id": req.TargetID}, nil
}
