// Package events defines the inbound event types the engine consumes and the
// audit events it publishes on the event bus.
package events

import (
	"time"

	"github.com/zapdesk/automata/pkg/models"
)

// DomainEvent is a business occurrence (order paid, tag added, ...) that can
// fire rules. The surrounding service layer guarantees CompanyID scoping.
type DomainEvent struct {
	Type       string         `json:"type"       validate:"required"`
	CompanyID  string         `json:"company_id" validate:"required"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// InboundMessage is a message arriving on a conversation channel. It drives
// flow sessions rather than one-shot rules.
type InboundMessage struct {
	CompanyID      string         `json:"company_id"      validate:"required"`
	ConversationID string         `json:"conversation_id" validate:"required"`
	Text           string         `json:"text"`
	Payload        map[string]any `json:"payload,omitempty"`
	ReceivedAt     time.Time      `json:"received_at"`
}

// EventType tags audit events published on the bus.
type EventType string

// Topic is the audit event topic.
const Topic = "automata.audit"

// Metadata keys set on bus messages alongside the JSON payload.
const (
	EventMetadataKey     = "company_id"
	EventTypeMetadataKey = "event_type"
)

const (
	RuleMatchedEvent       EventType = "rule.matched"
	ActionDispatchedEvent  EventType = "action.dispatched"
	ActionFailedEvent      EventType = "action.failed"
	SessionStartedEvent    EventType = "session.started"
	SessionAdvancedEvent   EventType = "session.advanced"
	SessionCompletedEvent  EventType = "session.completed"
	SessionTimedOutEvent   EventType = "session.timedout"
	TraversalBoundedEvent  EventType = "flow.traversal.bounded"
	DefinitionSkippedEvent EventType = "definition.skipped"
)

// BaseEvent carries the fields shared by every audit event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CompanyID string    `json:"company_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RuleMatched records that a rule fully matched a domain event.
type RuleMatched struct {
	BaseEvent

	RuleID    string `json:"rule_id"`
	EventType string `json:"event_type"`
}

func (e RuleMatched) GetType() EventType { return RuleMatchedEvent }

// ActionDispatched records a successful dispatch.
type ActionDispatched struct {
	BaseEvent

	Outcome models.ActionOutcome `json:"outcome"`
}

func (e ActionDispatched) GetType() EventType { return ActionDispatchedEvent }

// ActionFailed records a dispatch that exhausted retries or hit a permanent
// error. Flow traversal is not rolled back on delivery failure; this event is
// the audit trail for it.
type ActionFailed struct {
	BaseEvent

	Outcome models.ActionOutcome `json:"outcome"`
}

func (e ActionFailed) GetType() EventType { return ActionFailedEvent }

// SessionStarted records a new session created by an entry-node match.
type SessionStarted struct {
	BaseEvent

	Key         models.SessionKey `json:"key"`
	EntryNodeID string            `json:"entry_node_id"`
}

func (e SessionStarted) GetType() EventType { return SessionStartedEvent }

// SessionAdvanced records a session moving to a new node.
type SessionAdvanced struct {
	BaseEvent

	Key    models.SessionKey `json:"key"`
	NodeID string            `json:"node_id"`
}

func (e SessionAdvanced) GetType() EventType { return SessionAdvancedEvent }

// SessionCompleted records a session reaching a terminal node.
type SessionCompleted struct {
	BaseEvent

	Key models.SessionKey `json:"key"`
}

func (e SessionCompleted) GetType() EventType { return SessionCompletedEvent }

// SessionTimedOut records a session removed by the timeout sweep.
type SessionTimedOut struct {
	BaseEvent

	Key models.SessionKey `json:"key"`
}

func (e SessionTimedOut) GetType() EventType { return SessionTimedOutEvent }

// TraversalBounded records a traversal that hit the per-message hop budget,
// which indicates a misconfigured (usually cyclic) flow.
type TraversalBounded struct {
	BaseEvent

	Key    models.SessionKey `json:"key"`
	NodeID string            `json:"node_id"`
	Hops   int               `json:"hops"`
}

func (e TraversalBounded) GetType() EventType { return TraversalBoundedEvent }

// DefinitionSkipped records a rule or flow definition rejected at load time.
type DefinitionSkipped struct {
	BaseEvent

	DefinitionID string `json:"definition_id"`
	Kind         string `json:"kind"` // rule | flow
	Reason       string `json:"reason"`
}

func (e DefinitionSkipped) GetType() EventType { return DefinitionSkippedEvent }
