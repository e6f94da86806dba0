package models

// NodeType is the kind of a flow node.
type NodeType string

const (
	NodeTypeTriggerKeyword NodeType = "trigger_keyword" // Entry node, matches inbound text
	NodeTypeSendMessage    NodeType = "send_message"    // Emits a library message
	NodeTypeCondition      NodeType = "condition"       // Branches on conditions or reply text
	NodeTypeAction         NodeType = "action"          // Emits a CRM/order action
)

// MatchMode controls how a trigger keyword is compared against inbound text.
type MatchMode string

const (
	MatchModeExact      MatchMode = "exact"       // Case-folded equality
	MatchModeContains   MatchMode = "contains"    // Substring
	MatchModeStartsWith MatchMode = "starts_with" // Prefix
	MatchModeRegex      MatchMode = "regex"       // Pattern; invalid patterns never match
)

// NodeData carries the per-type payload of a node. Fields not relevant to the
// node's type stay empty.
type NodeData struct {
	// Trigger nodes.
	Keyword   string    `json:"keyword,omitempty"`
	MatchMode MatchMode `json:"match_mode,omitempty"`

	// Send-message nodes reference a message from the company library.
	MessageID string `json:"message_id,omitempty"`

	// Condition nodes: the same condition shape as rules, evaluated against
	// the inbound message payload merged with session variables. Variable, if
	// set, captures the inbound text into session variables before branching.
	Conditions []Condition `json:"conditions,omitempty"`
	Variable   string      `json:"variable,omitempty"`

	// Action nodes: the same action shape as rules.
	Action       ActionType     `json:"action,omitempty"`
	ActionParams map[string]any `json:"action_params,omitempty"`
	TargetID     string         `json:"target_id,omitempty"`
}

// Node is one vertex of a flow graph.
type Node struct {
	ID   string   `json:"id"   validate:"required"`
	Type NodeType `json:"type" validate:"required"`
	Data NodeData `json:"data"`
}

// Interactive reports whether the node consumes an inbound message before the
// session can move past it. Condition nodes park the session and branch on
// the next message; every other type advances within the same turn.
func (n *Node) Interactive() bool {
	return n.Type == NodeTypeCondition
}

// Edge is a directed connection between two nodes. Labeled edges leaving a
// condition node name branch outcomes; the single unlabeled edge is the
// default taken when no labeled branch matches.
type Edge struct {
	ID     string `json:"id"     validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label,omitempty"`
}

// IsDefault reports whether the edge is the unlabeled default branch.
func (e *Edge) IsDefault() bool {
	return e.Label == ""
}
