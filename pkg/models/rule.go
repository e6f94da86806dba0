// Package models defines the core domain models for the business automation engine.
package models

// ActionType identifies the capability an ActionRequest asks the dispatcher to run.
type ActionType string

const (
	ActionSendMessage       ActionType = "send_message"
	ActionAddTag            ActionType = "add_tag"
	ActionRemoveTag         ActionType = "remove_tag"
	ActionMoveCrmStage      ActionType = "move_crm_stage"
	ActionUpdateOrderStatus ActionType = "update_order_status"
)

// KnownActionTypes lists every action type the dispatcher can handle.
var KnownActionTypes = []ActionType{
	ActionSendMessage,
	ActionAddTag,
	ActionRemoveTag,
	ActionMoveCrmStage,
	ActionUpdateOrderStatus,
}

// Rule is a one-shot trigger/condition/action automation. Rules are stateless
// across events and read-only to the engine; the configuration UI owns their
// lifecycle.
type Rule struct {
	ID           string         `json:"id"            validate:"required"`
	OwnerID      string         `json:"owner_id"`
	CompanyID    string         `json:"company_id"    validate:"required"`
	Name         string         `json:"name"          validate:"required,min=3"`
	Trigger      string         `json:"trigger"       validate:"required"`
	Conditions   []Condition    `json:"conditions"`
	Action       ActionType     `json:"action"        validate:"required"`
	ActionParams map[string]any `json:"action_params"`
	IsActive     bool           `json:"is_active"`
}
