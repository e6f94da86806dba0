// Package sendmessage delivers a library message to a conversation through
// the outbound messenger collaborator.
package sendmessage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/template"
)

// Factory builds send-message actions bound to the messenger and the
// company's message library.
type Factory struct {
	messenger protocol.Messenger
	catalog   persistence.Catalog
}

// NewFactory creates the send-message action factory.
func NewFactory(messenger protocol.Messenger, catalog persistence.Catalog) *Factory {
	return &Factory{messenger: messenger, catalog: catalog}
}

func (*Factory) ID() models.ActionType {
	return models.ActionSendMessage
}

func (f *Factory) Create() (protocol.Action, error) {
	return &Action{messenger: f.messenger, catalog: f.catalog}, nil
}

// Action resolves the referenced library message, renders its placeholders
// and hands it to the messenger.
type Action struct {
	messenger protocol.Messenger
	catalog   persistence.Catalog
}

var errMissingMessageID = errors.New("send_message requires a message_id param")

func (a *Action) Execute(ctx context.Context, req models.ActionRequest, logger *slog.Logger) (map[string]any, error) {
	messageID, _ := req.Params["message_id"].(string)
	if messageID == "" {
		return nil, dispatcher.Permanent(errMissingMessageID)
	}

	content, err := a.catalog.Message(ctx, req.CompanyID, messageID)
	if err != nil {
		if persistence.IsMessageNotFound(err) {
			return nil, dispatcher.Permanent(err)
		}

		return nil, dispatcher.Transient(err)
	}

	rendered := *content
	if data, ok := req.Params["data"].(map[string]any); ok {
		rendered.Body = template.Render(content.Body, data)
	}

	logger.InfoContext(ctx, "Sending message",
		"message_id", messageID, "conversation_id", req.TargetID)

	if err := a.messenger.SendMessage(ctx, req.CompanyID, req.TargetID, rendered); err != nil {
		// Channel errors are usually timeouts or throttling; let the
		// dispatcher's retry budget decide.
		return nil, dispatcher.Transient(err)
	}

	return map[string]any{"message_id": messageID, "delivered_to": req.TargetID}, nil
}
