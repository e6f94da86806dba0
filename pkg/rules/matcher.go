// Package rules matches domain events against a tenant's automation rules.
package rules

import (
	"log/slog"
	"sort"

	"github.com/zapdesk/automata/pkg/conditions"
	"github.com/zapdesk/automata/pkg/events"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/template"
)

// Matcher filters a rule snapshot against one incoming event. It is stateless
// and safe for concurrent use; callers hand it an immutable rule slice per
// tenant.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a rule matcher.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With("module", "rule_matcher"),
	}
}

// Match returns one action request per fully matching rule. Rules match
// independently: an event may fire zero, one or many rules. Output is sorted
// by rule ID so results are deterministic for callers and tests.
func (m *Matcher) Match(event events.DomainEvent, ruleSet []*models.Rule) []models.ActionRequest {
	requests := make([]models.ActionRequest, 0)

	for _, rule := range ruleSet {
		if !rule.IsActive || rule.Trigger != event.Type {
			continue
		}

		if !conditions.Evaluate(rule.Conditions, event.Payload) {
			continue
		}

		m.logger.Debug("Rule matched",
			"rule_id", rule.ID,
			"company_id", rule.CompanyID,
			"event_type", event.Type)

		requests = append(requests, buildRequest(rule, event))
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SourceRuleID < requests[j].SourceRuleID
	})

	return requests
}

// buildRequest renders {{path}} placeholders in the rule's action params from
// the event payload and freezes the result into an immutable request.
func buildRequest(rule *models.Rule, event events.DomainEvent) models.ActionRequest {
	params := template.RenderParams(rule.ActionParams, event.Payload)

	targetID := ""
	if target, ok := params["target_id"].(string); ok {
		targetID = target
	}

	return models.ActionRequest{
		Type:         rule.Action,
		CompanyID:    rule.CompanyID,
		TargetID:     targetID,
		Params:       params,
		SourceRuleID: rule.ID,
	}
}
