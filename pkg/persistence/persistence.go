// Package persistence abstracts the storage the engine reads definitions
// from and keeps session state in.
package persistence

import (
	"context"

	"github.com/zapdesk/automata/pkg/models"
)

// Catalog reads rule and flow definitions for a tenant. Definitions are
// read-mostly; implementations may cache per company, with invalidation owned
// by the surrounding system.
type Catalog interface {
	Rules(ctx context.Context, companyID string) ([]*models.Rule, error)
	PublishedFlows(ctx context.Context, companyID string) ([]*models.FlowDefinition, error)
	// Flow resolves a definition regardless of status. Sessions already in
	// progress keep running after their flow is unpublished, so resume paths
	// must not filter on status.
	Flow(ctx context.Context, companyID, flowID string) (*models.FlowDefinition, error)
	Message(ctx context.Context, companyID, messageID string) (*models.MessageContent, error)
}

// SessionRepository durably stores flow sessions keyed by
// (companyID, conversationID, flowID). Multiple engine instances may share
// one repository; the session manager serializes mutations per key.
type SessionRepository interface {
	Get(ctx context.Context, key models.SessionKey) (*models.FlowSession, error)
	FindByConversation(ctx context.Context, companyID, conversationID string) (*models.FlowSession, error)
	Save(ctx context.Context, session *models.FlowSession) error
	Delete(ctx context.Context, key models.SessionKey) error
	List(ctx context.Context) ([]*models.FlowSession, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
