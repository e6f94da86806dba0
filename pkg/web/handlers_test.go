package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/automata/pkg/adapters/logcrm"
	"github.com/zapdesk/automata/pkg/cmd"
	"github.com/zapdesk/automata/pkg/dispatcher"
	"github.com/zapdesk/automata/pkg/engine"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence/memory"
	"github.com/zapdesk/automata/pkg/sessions"
)

type fakeMessenger struct {
	sent []models.MessageContent
}

func (m *fakeMessenger) SendMessage(_ context.Context, _, _ string, content models.MessageContent) error {
	m.sent = append(m.sent, content)

	return nil
}

type webFixture struct {
	app       *fiber.App
	catalog   *memory.Catalog
	repo      *memory.SessionRepository
	messenger *fakeMessenger
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	catalog := memory.NewCatalog()
	repo := memory.NewSessionRepository()
	messenger := &fakeMessenger{}

	reg := cmd.NewRegistry(logger, messenger, logcrm.NewService(logger), catalog)
	manager := sessions.NewManager(repo, logger)

	eng := engine.New(engine.Config{
		Catalog:    catalog,
		Sessions:   manager,
		Registry:   reg,
		Dispatcher: dispatcher.NewDispatcher(reg, logger),
		Logger:     logger,
	})

	handlers := NewAPIHandlers(eng, repo)

	app := fiber.New()
	v1 := app.Group("/v1")
	v1.Post("/events", handlers.IngestEvent)
	v1.Post("/messages", handlers.IngestMessage)
	v1.Post("/sweep", handlers.Sweep)
	app.Get("/health", handlers.HealthCheck)

	return &webFixture{app: app, catalog: catalog, repo: repo, messenger: messenger}
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeIngest(t *testing.T, resp *http.Response) IngestResponse {
	t.Helper()

	var out IngestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestIngestEvent_DispatchesMatches(t *testing.T) {
	f := newWebFixture(t)
	f.catalog.SeedRules("co-1", []*models.Rule{
		{
			ID: "rule-1", CompanyID: "co-1", Name: "Tag payers",
			Trigger: "order.paid", Action: models.ActionAddTag,
			ActionParams: map[string]any{"tag": "payer", "target_id": "{{customer_id}}"},
			IsActive:     true,
		},
	})

	resp := postJSON(t, f.app, "/v1/events",
		`{"type": "order.paid", "company_id": "co-1", "payload": {"customer_id": "cust-1"}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeIngest(t, resp)
	require.Len(t, out.Outcomes, 1)
	assert.True(t, out.Outcomes[0].Success)
}

func TestIngestEvent_BadJSON(t *testing.T) {
	f := newWebFixture(t)

	resp := postJSON(t, f.app, "/v1/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestEvent_MissingCompanyID(t *testing.T) {
	f := newWebFixture(t)

	resp := postJSON(t, f.app, "/v1/events", `{"type": "order.paid"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestMessage_RunsFlowAndDeliversMessage(t *testing.T) {
	f := newWebFixture(t)
	f.catalog.SeedMessage("co-1", models.MessageContent{ID: "msg-1", Type: "text", Body: "Welcome!"})
	f.catalog.SeedFlows("co-1", []*models.FlowDefinition{
		{
			ID: "flow-1", CompanyID: "co-1", Name: "Welcome",
			Status:   models.FlowStatusPublished,
			Schedule: models.Schedule{IsPerpetual: true},
			Nodes: []models.Node{
				{ID: "n1", Type: models.NodeTypeTriggerKeyword, Data: models.NodeData{Keyword: "hi"}},
				{ID: "n2", Type: models.NodeTypeSendMessage, Data: models.NodeData{MessageID: "msg-1"}},
			},
			Edges: []models.Edge{{ID: "e1", Source: "n1", Target: "n2"}},
		},
	})

	resp := postJSON(t, f.app, "/v1/messages",
		`{"company_id": "co-1", "conversation_id": "conv-1", "text": "hi"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeIngest(t, resp)
	require.Len(t, out.Outcomes, 1)
	assert.True(t, out.Outcomes[0].Success)

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "Welcome!", f.messenger.sent[0].Body)
}

func TestIngestMessage_MissingConversationID(t *testing.T) {
	f := newWebFixture(t)

	resp := postJSON(t, f.app, "/v1/messages", `{"company_id": "co-1", "text": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweep_ReturnsExpiredKeys(t *testing.T) {
	f := newWebFixture(t)

	resp := postJSON(t, f.app, "/v1/sweep", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SweepResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Expired)
}

func TestHealthCheck(t *testing.T) {
	f := newWebFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
