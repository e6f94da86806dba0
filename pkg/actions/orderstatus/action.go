// Package orderstatus updates the status of an order in the surrounding
// system.
package orderstatus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/protocol"
)

var (
	errMissingStatus = errors.New("update_order_status requires a status param")
	errMissingOrder  = errors.New("update_order_status requires a target order")
)

// Factory builds order-status actions bound to the CRM collaborator.
type Factory struct {
	crm protocol.CRMService
}

// NewFactory creates the order-status action factory.
func NewFactory(crm protocol.CRMService) *Factory {
	return &Factory{crm: crm}
}

func (*Factory) ID() models.ActionType {
	return models.ActionUpdateOrderStatus
}

func (f *Factory) Create() (protocol.Action, error) {
	return &Action{crm: f.crm}, nil
}

// Action sets the status of the target order.
type Action struct {
	crm protocol.CRMService
}

func (a *Action) Execute(ctx context.Context, req models.ActionRequest, logger *slog.Logger) (map[string]any, error) {
	status, _ := req.Params["status"].(string)
	if status == "" {
		return nil, dispatcher.Permanent(errMissingStatus)
	}

	if req.TargetID == "" {
		return nil, dispatcher.Permanent(errMissingOrder)
	}

	if err := a.crm.UpdateOrderStatus(ctx, req.CompanyID, req.TargetID, status); err != nil {
		return nil, dispatcher.Transient(err)
	}

	logger.InfoContext(ctx, "Order status updated",
		"status", status, "order_id", req.TargetID)

	return map[string]any{"status": status, "order_id": req.TargetID}, nil
}
