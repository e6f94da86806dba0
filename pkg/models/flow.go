package models

import "time"

// FlowStatus represents the lifecycle state of a conversation flow.
type FlowStatus string

const (
	FlowStatusDraft     FlowStatus = "draft"     // Editable in the builder, never executed
	FlowStatusPublished FlowStatus = "published" // Executable
)

// TimeoutAction is what happens to a session whose idle time exceeds the
// configured timeout. Only end_flow is supported today.
type TimeoutAction string

const (
	TimeoutActionEndFlow TimeoutAction = "end_flow"
)

// SessionConfig carries the per-flow session lifecycle settings.
type SessionConfig struct {
	TimeoutMinutes int           `json:"timeout_minutes" validate:"min=0"`
	TimeoutAction  TimeoutAction `json:"timeout_action"`
}

// FlowDefinition is the node/edge definition of a conversation flow. The flow
// builder owns mutation; the engine only reads published flows.
//
// Priority resolves keyword-trigger ties between published flows of the same
// company: the highest priority wins, then ascending flow ID.
type FlowDefinition struct {
	ID            string        `json:"id"             validate:"required"`
	CompanyID     string        `json:"company_id"     validate:"required"`
	Name          string        `json:"name"           validate:"required,min=3"`
	Nodes         []Node        `json:"nodes"          validate:"required,min=1"`
	Edges         []Edge        `json:"edges"`
	Schedule      Schedule      `json:"schedule"`
	SessionConfig SessionConfig `json:"session_config"`
	Status        FlowStatus    `json:"status"         validate:"required"`
	Priority      int           `json:"priority"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
}

// IsPublished reports whether the flow may be executed.
func (f *FlowDefinition) IsPublished() bool {
	return f.Status == FlowStatusPublished
}

// Timeout returns the session idle timeout as a duration. Zero means the
// session never times out.
func (f *FlowDefinition) Timeout() time.Duration {
	return time.Duration(f.SessionConfig.TimeoutMinutes) * time.Minute
}
