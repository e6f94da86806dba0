package protocol

import (
	"context"

	"github.com/zapdesk/automata/pkg/models"
)

// Messenger is the outbound channel adapter. Delivery guarantees are the
// channel's concern; the engine treats send as fire-and-report.
type Messenger interface {
	SendMessage(ctx context.Context, companyID, conversationID string, content models.MessageContent) error
}

// CRMService applies tag, stage and order mutations in the surrounding
// system.
type CRMService interface {
	AddTag(ctx context.Context, companyID, targetID, tag string) error
	RemoveTag(ctx context.Context, companyID, targetID, tag string) error
	MoveStage(ctx context.Context, companyID, targetID, stageID string) error
	UpdateOrderStatus(ctx context.Context, companyID, orderID, status string) error
}
