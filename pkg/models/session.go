package models

import "time"

// SessionKey identifies one flow session. Mutations to a session are
// linearized per key; different keys proceed independently.
type SessionKey struct {
	CompanyID      string `json:"company_id"`
	ConversationID string `json:"conversation_id"`
	FlowID         string `json:"flow_id"`
}

// FlowSession is the per-conversation progress cursor through a flow graph.
// CurrentNodeID is the node the session is parked at: the last node processed
// while waiting for external input. The session manager exclusively owns
// sessions; executors only borrow one for the duration of a single message.
type FlowSession struct {
	CompanyID      string            `json:"company_id"      validate:"required"`
	ConversationID string            `json:"conversation_id" validate:"required"`
	FlowID         string            `json:"flow_id"         validate:"required"`
	CurrentNodeID  string            `json:"current_node_id" validate:"required"`
	Variables      map[string]string `json:"variables,omitempty"`

	// TimeoutMinutes is snapshotted from the flow's session config at
	// creation so expiry stays stable even if the flow is edited later.
	TimeoutMinutes int `json:"timeout_minutes"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Key returns the session's identity.
func (s *FlowSession) Key() SessionKey {
	return SessionKey{
		CompanyID:      s.CompanyID,
		ConversationID: s.ConversationID,
		FlowID:         s.FlowID,
	}
}

// Expired reports whether the session idled past its timeout at the given
// instant. Sessions without a timeout never expire.
func (s *FlowSession) Expired(now time.Time) bool {
	if s.TimeoutMinutes <= 0 {
		return false
	}

	return now.Sub(s.LastActivityAt) > time.Duration(s.TimeoutMinutes)*time.Minute
}
