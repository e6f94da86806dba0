// Package tag applies and removes contact tags through the CRM collaborator.
package tag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/protocol"
)

var (
	errMissingTag    = errors.New("tag actions require a tag param")
	errMissingTarget = errors.New("tag actions require a target contact")
)

// AddFactory builds add-tag actions.
type AddFactory struct {
	crm protocol.CRMService
}

// NewAddFactory creates the add-tag action factory.
func NewAddFactory(crm protocol.CRMService) *AddFactory {
	return &AddFactory{crm: crm}
}

func (*AddFactory) ID() models.ActionType {
	return models.ActionAddTag
}

func (f *AddFactory) Create() (protocol.Action, error) {
	return &Action{crm: f.crm, remove: false}, nil
}

// RemoveFactory builds remove-tag actions.
type RemoveFactory struct {
	crm protocol.CRMService
}

// NewRemoveFactory creates the remove-tag action factory.
func NewRemoveFactory(crm protocol.CRMService) *RemoveFactory {
	return &RemoveFactory{crm: crm}
}

func (*RemoveFactory) ID() models.ActionType {
	return models.ActionRemoveTag
}

func (f *RemoveFactory) Create() (protocol.Action, error) {
	return &Action{crm: f.crm, remove: true}, nil
}

// Action mutates the tag set of the target contact. Add and remove share the
// same shape, differing only in the CRM call.
type Action struct {
	crm    protocol.CRMService
	remove bool
}

func (a *Action) Execute(ctx context.Context, req models.ActionRequest, logger *slog.Logger) (map[string]any, error) {
	value, _ := req.Params["tag"].(string)
	if value == "" {
		return nil, dispatcher.Permanent(errMissingTag)
	}

	if req.TargetID == "" {
		return nil, dispatcher.Permanent(errMissingTarget)
	}

	var err error
	if a.remove {
		err = a.crm.RemoveTag(ctx, req.CompanyID, req.TargetID, value)
	} else {
		err = a.crm.AddTag(ctx, req.CompanyID, req.TargetID, value)
	}

	if err != nil {
		return nil, dispatcher.Transient(err)
	}

	logger.InfoContext(ctx, "Tag updated",
		"tag", value, "target_id", req.TargetID, "removed", a.remove)

	return map[string]any{"tag": value, "target_id": req.TargetID}, nil
}
