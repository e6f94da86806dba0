package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zapdesk/automata/pkg/models"
)

func TestMatchKeyword(t *testing.T) {
	tests := []struct {
		name string
		data models.NodeData
		text string
		want bool
	}{
		{"exact match", models.NodeData{Keyword: "menu", MatchMode: models.MatchModeExact}, "menu", true},
		{"exact is default mode", models.NodeData{Keyword: "menu"}, "menu", true},
		{"exact case folded", models.NodeData{Keyword: "Menu"}, "MENU", true},
		{"exact trims whitespace", models.NodeData{Keyword: "menu"}, "  menu  ", true},
		{"exact rejects extra words", models.NodeData{Keyword: "menu"}, "menu please", false},
		{"contains", models.NodeData{Keyword: "help", MatchMode: models.MatchModeContains}, "i need help now", true},
		{"starts_with", models.NodeData{Keyword: "order", MatchMode: models.MatchModeStartsWith}, "order #123", true},
		{"starts_with rejects middle", models.NodeData{Keyword: "order", MatchMode: models.MatchModeStartsWith}, "my order", false},
		{"regex", models.NodeData{Keyword: `^track \d+$`, MatchMode: models.MatchModeRegex}, "track 42", true},
		{"invalid regex never matches", models.NodeData{Keyword: `track (`, MatchMode: models.MatchModeRegex}, "track (", false},
		{"empty keyword never matches", models.NodeData{Keyword: ""}, "", false},
		{"unknown mode never matches", models.NodeData{Keyword: "menu", MatchMode: "fuzzy"}, "menu", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchKeyword(tt.data, tt.text))
		})
	}
}
