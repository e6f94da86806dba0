package rules

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/automata/pkg/events"
	"github.com/zapdesk/automata/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func paidOrderEvent(total float64) events.DomainEvent {
	return events.DomainEvent{
		Type:      "order.paid",
		CompanyID: "co-1",
		Payload: map[string]any{
			"total":       total,
			"customer_id": "cust-9",
			"customer":    map[string]any{"name": "Maria"},
		},
		OccurredAt: time.Now().UTC(),
	}
}

func TestMatch_ConditionsAreConjunction(t *testing.T) {
	matcher := NewMatcher(testLogger())

	rule := &models.Rule{
		ID:        "rule-vip",
		CompanyID: "co-1",
		Name:      "Tag big spenders",
		Trigger:   "order.paid",
		Conditions: []models.Condition{
			{Field: "total", Operator: "gt", Value: "100"},
		},
		Action:       models.ActionAddTag,
		ActionParams: map[string]any{"tag": "vip", "target_id": "{{customer_id}}"},
		IsActive:     true,
	}

	requests := matcher.Match(paidOrderEvent(150), []*models.Rule{rule})
	require.Len(t, requests, 1)
	assert.Equal(t, models.ActionAddTag, requests[0].Type)
	assert.Equal(t, "cust-9", requests[0].TargetID)
	assert.Equal(t, "vip", requests[0].Params["tag"])
	assert.Equal(t, "rule-vip", requests[0].SourceRuleID)

	requests = matcher.Match(paidOrderEvent(50), []*models.Rule{rule})
	assert.Empty(t, requests)
}

func TestMatch_InactiveAndMismatchedRulesSkipped(t *testing.T) {
	matcher := NewMatcher(testLogger())

	ruleSet := []*models.Rule{
		{
			ID: "rule-inactive", CompanyID: "co-1", Name: "Inactive rule",
			Trigger: "order.paid", Action: models.ActionAddTag, IsActive: false,
		},
		{
			ID: "rule-other-trigger", CompanyID: "co-1", Name: "Other trigger",
			Trigger: "order.cancelled", Action: models.ActionAddTag, IsActive: true,
		},
	}

	assert.Empty(t, matcher.Match(paidOrderEvent(150), ruleSet))
}

func TestMatch_RulesMatchIndependently(t *testing.T) {
	matcher := NewMatcher(testLogger())

	ruleSet := []*models.Rule{
		{
			ID: "rule-b", CompanyID: "co-1", Name: "Notify team",
			Trigger: "order.paid", Action: models.ActionSendMessage, IsActive: true,
		},
		{
			ID: "rule-a", CompanyID: "co-1", Name: "Tag buyer",
			Trigger: "order.paid", Action: models.ActionAddTag, IsActive: true,
		},
		{
			ID: "rule-c", CompanyID: "co-1", Name: "High value only",
			Trigger: "order.paid",
			Conditions: []models.Condition{
				{Field: "total", Operator: "gt", Value: "1000"},
			},
			Action: models.ActionMoveCrmStage, IsActive: true,
		},
	}

	requests := matcher.Match(paidOrderEvent(150), ruleSet)
	require.Len(t, requests, 2)
	assert.Equal(t, "rule-a", requests[0].SourceRuleID, "output sorted by rule id")
	assert.Equal(t, "rule-b", requests[1].SourceRuleID)
}

func TestMatch_ParamsRenderedFromPayload(t *testing.T) {
	matcher := NewMatcher(testLogger())

	rule := &models.Rule{
		ID: "rule-msg", CompanyID: "co-1", Name: "Thank the customer",
		Trigger: "order.paid",
		Action:  models.ActionSendMessage,
		ActionParams: map[string]any{
			"message_id": "msg-thanks",
			"greeting":   "Thanks, {{customer.name}}!",
		},
		IsActive: true,
	}

	requests := matcher.Match(paidOrderEvent(10), []*models.Rule{rule})
	require.Len(t, requests, 1)
	assert.Equal(t, "Thanks, Maria!", requests[0].Params["greeting"])
}
