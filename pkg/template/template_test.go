package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesNestedPaths(t *testing.T) {
	data := map[string]any{
		"customer": map[string]any{"name": "Maria"},
		"order":    map[string]any{"total": 150.0},
	}

	out := Render("Hi {{customer.name}}, your order totals {{order.total}}", data)
	assert.Equal(t, "Hi Maria, your order totals 150", out)
}

func TestRender_UnresolvablePlaceholderLeftVerbatim(t *testing.T) {
	out := Render("Hello {{missing.path}}!", map[string]any{"other": 1})
	assert.Equal(t, "Hello {{missing.path}}!", out)
}

func TestRender_NoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", Render("plain text", nil))
}

func TestRender_WhitespaceInsidePlaceholder(t *testing.T) {
	out := Render("{{ name }}", map[string]any{"name": "Ana"})
	assert.Equal(t, "Ana", out)
}

func TestRenderParams_OnlyStringsRendered(t *testing.T) {
	data := map[string]any{"user": map[string]any{"id": "u-1"}}
	params := map[string]any{
		"target_id": "{{user.id}}",
		"count":     3,
	}

	rendered := RenderParams(params, data)

	assert.Equal(t, "u-1", rendered["target_id"])
	assert.Equal(t, 3, rendered["count"])
	assert.Equal(t, "{{user.id}}", params["target_id"], "input map must not be mutated")
}

func TestLookup(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{"b": "deep"},
		"s": "scalar",
	}

	value, ok := Lookup(data, "a.b")
	assert.True(t, ok)
	assert.Equal(t, "deep", value)

	_, ok = Lookup(data, "a.missing")
	assert.False(t, ok)

	_, ok = Lookup(data, "s.deeper")
	assert.False(t, ok, "traversing into a scalar is not an error, just a miss")
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "42", Stringify(42.0))
	assert.Equal(t, "42.5", Stringify(42.5))
	assert.Equal(t, "text", Stringify("text"))
	assert.Equal(t, "true", Stringify(true))
}
