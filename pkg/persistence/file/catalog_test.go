package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/automata/pkg/persistence"
)

func writeCompanyFile(t *testing.T, root, companyID, name, content string) {
	t.Helper()

	dir := filepath.Join(root, companyID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestCatalog(t *testing.T, root string) *Catalog {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	catalog, err := NewCatalog(root, logger)
	require.NoError(t, err)

	return catalog
}

const validRule = `{
	"id": "rule-1",
	"company_id": "co-1",
	"name": "Tag big orders",
	"trigger": "order.paid",
	"conditions": [{"field": "total", "operator": "gt", "value": "100"}],
	"action": "add_tag",
	"action_params": {"tag": "vip"},
	"is_active": true
}`

const validFlow = `{
	"id": "flow-1",
	"company_id": "co-1",
	"name": "Welcome flow",
	"status": "published",
	"schedule": {"is_perpetual": true},
	"session_config": {"timeout_minutes": 30, "timeout_action": "end_flow"},
	"nodes": [
		{"id": "n1", "type": "trigger_keyword", "data": {"keyword": "hi"}},
		{"id": "n2", "type": "send_message", "data": {"message_id": "msg-1"}}
	],
	"edges": [{"id": "e1", "source": "n1", "target": "n2"}]
}`

func TestRules_LoadsValidDocuments(t *testing.T) {
	root := t.TempDir()
	writeCompanyFile(t, root, "co-1", "rules.json", "["+validRule+"]")

	catalog := newTestCatalog(t, root)

	ruleSet, err := catalog.Rules(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, ruleSet, 1)
	assert.Equal(t, "rule-1", ruleSet[0].ID)
	assert.True(t, ruleSet[0].IsActive)
}

func TestRules_SkipsInvalidDocuments(t *testing.T) {
	root := t.TempDir()
	// Second document is missing its trigger; it is skipped, not fatal.
	writeCompanyFile(t, root, "co-1", "rules.json",
		"["+validRule+`, {"id": "rule-bad", "company_id": "co-1", "name": "No trigger", "action": "add_tag"}]`)

	catalog := newTestCatalog(t, root)

	ruleSet, err := catalog.Rules(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, ruleSet, 1)
	assert.Equal(t, "rule-1", ruleSet[0].ID)
}

func TestRules_MissingFileMeansNoRules(t *testing.T) {
	catalog := newTestCatalog(t, t.TempDir())

	ruleSet, err := catalog.Rules(context.Background(), "co-unknown")
	require.NoError(t, err)
	assert.Empty(t, ruleSet)
}

func TestPublishedFlows_FiltersDraftsAndBrokenGraphs(t *testing.T) {
	root := t.TempDir()

	draft := `{
		"id": "flow-draft", "company_id": "co-1", "name": "Draft flow",
		"status": "draft", "schedule": {"is_perpetual": true},
		"nodes": [{"id": "n1", "type": "trigger_keyword", "data": {"keyword": "x"}}]
	}`
	brokenGraph := `{
		"id": "flow-broken", "company_id": "co-1", "name": "Broken flow",
		"status": "published", "schedule": {"is_perpetual": true},
		"nodes": [{"id": "n1", "type": "trigger_keyword"}],
		"edges": [{"id": "e1", "source": "n1", "target": "ghost"}]
	}`

	writeCompanyFile(t, root, "co-1", "flows.json", "["+validFlow+","+draft+","+brokenGraph+"]")

	catalog := newTestCatalog(t, root)

	flows, err := catalog.PublishedFlows(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "flow-1", flows[0].ID)
}

func TestFlow_ResolvesRegardlessOfStatus(t *testing.T) {
	root := t.TempDir()

	draft := `{
		"id": "flow-draft", "company_id": "co-1", "name": "Draft flow",
		"status": "draft", "schedule": {"is_perpetual": true},
		"nodes": [{"id": "n1", "type": "trigger_keyword", "data": {"keyword": "x"}}]
	}`

	writeCompanyFile(t, root, "co-1", "flows.json", "["+draft+"]")

	catalog := newTestCatalog(t, root)

	def, err := catalog.Flow(context.Background(), "co-1", "flow-draft")
	require.NoError(t, err)
	assert.Equal(t, "flow-draft", def.ID)

	_, err = catalog.Flow(context.Background(), "co-1", "flow-missing")
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestMessage_Lookup(t *testing.T) {
	root := t.TempDir()
	writeCompanyFile(t, root, "co-1", "messages.json",
		`[{"id": "msg-1", "type": "text", "body": "Hello {{customer.name}}!"}]`)

	catalog := newTestCatalog(t, root)

	content, err := catalog.Message(context.Background(), "co-1", "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{customer.name}}!", content.Body)

	_, err = catalog.Message(context.Background(), "co-1", "msg-none")
	assert.ErrorIs(t, err, persistence.ErrMessageNotFound)
}

func TestNewCatalog_StripsFileScheme(t *testing.T) {
	root := t.TempDir()
	writeCompanyFile(t, root, "co-1", "rules.json", "["+validRule+"]")

	catalog := newTestCatalog(t, "file://"+root)

	ruleSet, err := catalog.Rules(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Len(t, ruleSet, 1)
}
