package models

import "time"

// ActionRequest is an immutable instruction handed to the action dispatcher.
// It is never mutated after creation; retries re-dispatch the same value.
type ActionRequest struct {
	Type         ActionType     `json:"type"`
	CompanyID    string         `json:"company_id"`
	TargetID     string         `json:"target_id"`
	Params       map[string]any `json:"params,omitempty"`
	SourceRuleID string         `json:"source_rule_id,omitempty"`
	SourceFlowID string         `json:"source_flow_id,omitempty"`
}

// ActionOutcome is the structured result of dispatching one action request.
// Dispatch failures are reported here rather than raised, so callers decide
// what is user-visible.
type ActionOutcome struct {
	ID          string        `json:"id"`
	Request     ActionRequest `json:"request"`
	Success     bool          `json:"success"`
	Attempts    int           `json:"attempts"`
	Error       string        `json:"error,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
}

// MessageContent is a resolved library message ready for outbound delivery.
type MessageContent struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // text, image, ...
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}
