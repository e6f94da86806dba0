package models

// Operator is a comparison applied between an event payload field and a
// literal value. Numeric operators require both operands to parse as numbers.
type Operator string

const (
	OperatorEq          Operator = "eq"
	OperatorNe          Operator = "ne"
	OperatorGt          Operator = "gt"
	OperatorLt          Operator = "lt"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
)

// operatorAliases maps the symbolic spellings accepted in stored documents to
// their canonical operator. The configuration UI historically persisted both.
var operatorAliases = map[string]Operator{
	"eq": OperatorEq, "==": OperatorEq, "equals": OperatorEq,
	"ne": OperatorNe, "!=": OperatorNe, "not_equals": OperatorNe,
	"gt": OperatorGt, ">": OperatorGt,
	"lt": OperatorLt, "<": OperatorLt,
	"contains":     OperatorContains,
	"not_contains": OperatorNotContains,
}

// NormalizeOperator resolves an operator spelling to its canonical form.
// Unknown spellings return false; callers treat those conditions as non-matching.
func NormalizeOperator(raw string) (Operator, bool) {
	op, ok := operatorAliases[raw]

	return op, ok
}

// Condition is a single (field, operator, value) predicate. A condition list
// is always a conjunction: every condition must hold for the list to match.
type Condition struct {
	Field    string `json:"field"    validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    string `json:"value"`
}
