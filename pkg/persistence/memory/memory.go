// Package memory provides in-memory persistence for tests and single-node
// development.
package memory

import (
	"context"
	"sync"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
)

// SessionRepository keeps sessions in a mutex-guarded map. Values are copied
// on the way in and out so callers never share mutable state with the store.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[models.SessionKey]models.FlowSession
}

// NewSessionRepository creates an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[models.SessionKey]models.FlowSession),
	}
}

func (r *SessionRepository) Get(_ context.Context, key models.SessionKey) (*models.FlowSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[key]
	if !ok {
		return nil, persistence.ErrSessionNotFound
	}

	return copySession(session), nil
}

func (r *SessionRepository) FindByConversation(_ context.Context, companyID, conversationID string) (*models.FlowSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for key, session := range r.sessions {
		if key.CompanyID == companyID && key.ConversationID == conversationID {
			return copySession(session), nil
		}
	}

	return nil, persistence.ErrSessionNotFound
}

func (r *SessionRepository) Save(_ context.Context, session *models.FlowSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.Key()] = *copySession(*session)

	return nil
}

func (r *SessionRepository) Delete(_ context.Context, key models.SessionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, key)

	return nil
}

func (r *SessionRepository) List(_ context.Context) ([]*models.FlowSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*models.FlowSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, copySession(session))
	}

	return sessions, nil
}

func (r *SessionRepository) HealthCheck(_ context.Context) error {
	return nil
}

func (r *SessionRepository) Close(_ context.Context) error {
	return nil
}

func copySession(session models.FlowSession) *models.FlowSession {
	if session.Variables != nil {
		vars := make(map[string]string, len(session.Variables))
		for k, v := range session.Variables {
			vars[k] = v
		}

		session.Variables = vars
	}

	return &session
}

// Catalog serves rule and flow definitions from memory. Tests seed it
// directly; the Seed helpers replace the per-company slices atomically.
type Catalog struct {
	mu       sync.RWMutex
	rules    map[string][]*models.Rule
	flows    map[string][]*models.FlowDefinition
	messages map[string]map[string]models.MessageContent
}

// NewCatalog creates an empty in-memory catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		rules:    make(map[string][]*models.Rule),
		flows:    make(map[string][]*models.FlowDefinition),
		messages: make(map[string]map[string]models.MessageContent),
	}
}

// SeedRules replaces the rule snapshot for a company.
func (c *Catalog) SeedRules(companyID string, ruleSet []*models.Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules[companyID] = ruleSet
}

// SeedFlows replaces the flow snapshot for a company.
func (c *Catalog) SeedFlows(companyID string, flows []*models.FlowDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flows[companyID] = flows
}

// SeedMessage adds a library message for a company.
func (c *Catalog) SeedMessage(companyID string, content models.MessageContent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.messages[companyID] == nil {
		c.messages[companyID] = make(map[string]models.MessageContent)
	}

	c.messages[companyID][content.ID] = content
}

func (c *Catalog) Rules(_ context.Context, companyID string) ([]*models.Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.rules[companyID], nil
}

func (c *Catalog) PublishedFlows(_ context.Context, companyID string) ([]*models.FlowDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	published := make([]*models.FlowDefinition, 0)

	for _, flow := range c.flows[companyID] {
		if flow.IsPublished() {
			published = append(published, flow)
		}
	}

	return published, nil
}

func (c *Catalog) Flow(_ context.Context, companyID, flowID string) (*models.FlowDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, flow := range c.flows[companyID] {
		if flow.ID == flowID {
			return flow, nil
		}
	}

	return nil, persistence.ErrFlowNotFound
}

func (c *Catalog) Message(_ context.Context, companyID, messageID string) (*models.MessageContent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	content, ok := c.messages[companyID][messageID]
	if !ok {
		return nil, persistence.ErrMessageNotFound
	}

	return &content, nil
}
