// Package conditions evaluates (field, operator, value) predicates against
// event payloads. Evaluation never fails: every malformed condition, missing
// field or unparsable number degrades to a non-match, keeping the matching
// hot path free of error handling.
package conditions

import (
	"strconv"
	"strings"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/template"
)

// Evaluate reports whether every condition holds against the payload. An
// empty condition list is an unconditional match.
func Evaluate(conds []models.Condition, payload map[string]any) bool {
	for _, cond := range conds {
		if !evaluateOne(cond, payload) {
			return false
		}
	}

	return true
}

func evaluateOne(cond models.Condition, payload map[string]any) bool {
	op, ok := models.NormalizeOperator(cond.Operator)
	if !ok {
		return false
	}

	raw, ok := template.Lookup(payload, cond.Field)
	if !ok {
		return false
	}

	field := template.Stringify(raw)

	switch op {
	case models.OperatorEq:
		return field == cond.Value
	case models.OperatorNe:
		return field != cond.Value
	case models.OperatorContains:
		return strings.Contains(field, cond.Value)
	case models.OperatorNotContains:
		return !strings.Contains(field, cond.Value)
	case models.OperatorGt, models.OperatorLt:
		return numericCompare(op, raw, cond.Value)
	}

	return false
}

// numericCompare parses both operands as floats. Either side failing to
// parse makes the condition false, never an error.
func numericCompare(op models.Operator, left any, right string) bool {
	lf, ok := toFloat(left)
	if !ok {
		return false
	}

	rf, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return false
	}

	if op == models.OperatorGt {
		return lf > rf
	}

	return lf < rf
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}
