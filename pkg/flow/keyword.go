package flow

import (
	"regexp"
	"strings"

	"github.com/zapdesk/automata/pkg/models"
)

// MatchKeyword reports whether inbound text satisfies a trigger node's
// keyword. Text and keyword are case-folded and trimmed before comparison;
// an invalid regex pattern never matches rather than erroring.
func MatchKeyword(data models.NodeData, text string) bool {
	message := strings.ToLower(strings.TrimSpace(text))
	keyword := strings.ToLower(strings.TrimSpace(data.Keyword))

	if keyword == "" {
		return false
	}

	switch data.MatchMode {
	case models.MatchModeExact, "":
		return message == keyword
	case models.MatchModeContains:
		return strings.Contains(message, keyword)
	case models.MatchModeStartsWith:
		return strings.HasPrefix(message, keyword)
	case models.MatchModeRegex:
		matched, err := regexp.MatchString(data.Keyword, message)
		if err != nil {
			return false
		}

		return matched
	default:
		return false
	}
}
