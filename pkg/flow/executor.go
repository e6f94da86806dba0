package flow

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zapdesk/automata/pkg/conditions"
	"github.com/zapdesk/automata/pkg/eventbus"
	"github.com/zapdesk/automata/pkg/events"
	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/schedule"
	"github.com/zapdesk/automata/pkg/sessions"
	"github.com/zapdesk/automata/pkg/template"
)

// maxHops bounds how many nodes one inbound message may traverse. Flow
// graphs may contain cycles; a message that walks this many hops without
// parking is treated as a misconfigured flow and parked where it stands.
const maxHops = 50

// Executor drives flow sessions: it matches inbound messages against trigger
// keywords, resumes parked sessions and walks the graph until the next
// interactive node, dispatching send-message and action nodes along the way.
//
// All work for one conversation happens under the session manager's
// conversation lock, so two messages for the same conversation can never
// interleave their traversals.
type Executor struct {
	catalog    persistence.Catalog
	sessions   *sessions.Manager
	dispatcher protocol.Dispatcher
	bus        eventbus.EventPublisher
	logger     *slog.Logger
}

// NewExecutor creates a flow executor. The bus may be nil, in which case no
// audit events are published.
func NewExecutor(
	catalog persistence.Catalog,
	manager *sessions.Manager,
	dispatcher protocol.Dispatcher,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		catalog:    catalog,
		sessions:   manager,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.With("module", "flow_executor"),
	}
}

// Handle processes one inbound message under the conversation lock. An
// existing session resumes at its parked node; otherwise published flows are
// scanned for a keyword match and a session is started. The returned outcomes
// cover every node dispatched during the traversal, failures included:
// delivery failure never rolls the session back.
func (e *Executor) Handle(ctx context.Context, msg events.InboundMessage, now time.Time) ([]models.ActionOutcome, error) {
	release, err := e.sessions.Lock(ctx, msg.CompanyID, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := e.sessions.FindByConversation(ctx, msg.CompanyID, msg.ConversationID, now)
	if err != nil {
		return nil, err
	}

	if session != nil {
		return e.resume(ctx, session, msg, now)
	}

	return e.trigger(ctx, msg, now)
}

// trigger scans published flows for an entry keyword match. Flows are tried
// in priority order, highest first, ties broken by ascending flow id; only
// the first match fires, and a schedule-gated match consumes the message
// without falling through to lower-priority flows.
func (e *Executor) trigger(ctx context.Context, msg events.InboundMessage, now time.Time) ([]models.ActionOutcome, error) {
	defs, err := e.catalog.PublishedFlows(ctx, msg.CompanyID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Priority != defs[j].Priority {
			return defs[i].Priority > defs[j].Priority
		}

		return defs[i].ID < defs[j].ID
	})

	for _, def := range defs {
		graph, err := NewGraph(def)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping flow with invalid graph",
				"company_id", msg.CompanyID, "flow_id", def.ID, "error", err)
			e.publish(ctx, msg.CompanyID, events.DefinitionSkipped{
				BaseEvent:    e.newBase(events.DefinitionSkippedEvent, msg.CompanyID, now),
				DefinitionID: def.ID,
				Kind:         "flow",
				Reason:       err.Error(),
			})

			continue
		}

		entry := graph.Entry()
		if entry.Type != models.NodeTypeTriggerKeyword || !MatchKeyword(entry.Data, msg.Text) {
			continue
		}

		// Entry-only gating: sessions started inside the window keep
		// running after it closes.
		if !schedule.IsActive(def.Schedule, now) {
			e.logger.InfoContext(ctx, "Keyword matched outside schedule window",
				"company_id", msg.CompanyID, "flow_id", def.ID)

			return nil, nil
		}

		key := models.SessionKey{
			CompanyID:      msg.CompanyID,
			ConversationID: msg.ConversationID,
			FlowID:         def.ID,
		}

		session, created, err := e.sessions.GetOrCreate(ctx, key, entry.ID, def.SessionConfig.TimeoutMinutes, now)
		if err != nil {
			return nil, err
		}

		if created {
			e.logger.InfoContext(ctx, "Session started",
				"company_id", key.CompanyID, "conversation_id", key.ConversationID, "flow_id", key.FlowID)
			e.publish(ctx, key.CompanyID, events.SessionStarted{
				BaseEvent:   e.newBase(events.SessionStartedEvent, key.CompanyID, now),
				Key:         key,
				EntryNodeID: entry.ID,
			})
		}

		return e.run(ctx, graph, session, msg, entry.ID, nil, now)
	}

	return nil, nil
}

// resume continues a parked session with the new inbound message. The flow is
// resolved regardless of status so unpublishing never strands live sessions;
// a flow deleted outright ends the session cleanly instead.
func (e *Executor) resume(ctx context.Context, session *models.FlowSession, msg events.InboundMessage, now time.Time) ([]models.ActionOutcome, error) {
	def, err := e.catalog.Flow(ctx, session.CompanyID, session.FlowID)
	if err != nil {
		if persistence.IsFlowNotFound(err) || persistence.IsInvalidDefinition(err) {
			e.logger.WarnContext(ctx, "Ending session, flow no longer loadable",
				"company_id", session.CompanyID, "flow_id", session.FlowID, "error", err)

			return nil, e.complete(ctx, session, now)
		}

		return nil, err
	}

	graph, err := NewGraph(def)
	if err != nil {
		e.logger.WarnContext(ctx, "Ending session, flow graph no longer valid",
			"company_id", session.CompanyID, "flow_id", session.FlowID, "error", err)

		return nil, e.complete(ctx, session, now)
	}

	parked, ok := graph.Node(session.CurrentNodeID)
	if !ok {
		// The node was edited away since the session parked there.
		e.logger.WarnContext(ctx, "Ending session, parked node removed from flow",
			"company_id", session.CompanyID, "flow_id", session.FlowID, "node_id", session.CurrentNodeID)

		return nil, e.complete(ctx, session, now)
	}

	if parked.Type != models.NodeTypeCondition {
		// Parked mid-traversal (hop budget) or at the entry; continue along
		// the default edge.
		next := graph.DefaultEdge(parked.ID)
		if next == nil {
			return nil, e.complete(ctx, session, now)
		}

		return e.run(ctx, graph, session, msg, next.Target, nil, now)
	}

	vars := captureVariable(parked.Data, msg.Text)

	edge := e.branch(graph, parked, session, msg, vars)
	if edge == nil {
		// No branch matched and no default exists: stay parked, refresh
		// activity, keep any captured variable.
		return nil, e.sessions.Advance(ctx, session, parked.ID, vars, now)
	}

	return e.run(ctx, graph, session, msg, edge.Target, vars, now)
}

// branch picks the outgoing edge a condition node takes for this message.
// With conditions present the boolean outcome selects the true/false labeled
// edge; without conditions the reply text is matched against edge labels,
// quick-reply style. Either way the unlabeled default edge is the fallback.
func (e *Executor) branch(graph *Graph, node *models.Node, session *models.FlowSession, msg events.InboundMessage, vars map[string]string) *models.Edge {
	if len(node.Data.Conditions) > 0 {
		data := buildData(msg, merged(session.Variables, vars))
		outcome := conditions.Evaluate(node.Data.Conditions, data)

		if edge := graph.LabeledEdge(node.ID, strconv.FormatBool(outcome)); edge != nil {
			return edge
		}

		return graph.DefaultEdge(node.ID)
	}

	reply := strings.ToLower(strings.TrimSpace(msg.Text))

	for _, edge := range graph.Outgoing(node.ID) {
		if !edge.IsDefault() && strings.ToLower(strings.TrimSpace(edge.Label)) == reply {
			return edge
		}
	}

	return graph.DefaultEdge(node.ID)
}

// run walks the graph from a node, dispatching non-interactive nodes until
// the traversal parks at a condition node, reaches a terminal node, or
// exhausts the hop budget.
func (e *Executor) run(ctx context.Context, graph *Graph, session *models.FlowSession, msg events.InboundMessage, startNodeID string, vars map[string]string, now time.Time) ([]models.ActionOutcome, error) {
	outcomes := make([]models.ActionOutcome, 0)
	data := buildData(msg, merged(session.Variables, vars))
	current := startNodeID

	for hops := 0; ; hops++ {
		if hops >= maxHops {
			e.logger.ErrorContext(ctx, "Traversal hit hop budget, parking session",
				"company_id", session.CompanyID, "flow_id", session.FlowID, "node_id", current, "hops", hops)
			e.publish(ctx, session.CompanyID, events.TraversalBounded{
				BaseEvent: e.newBase(events.TraversalBoundedEvent, session.CompanyID, now),
				Key:       session.Key(),
				NodeID:    current,
				Hops:      hops,
			})

			return outcomes, e.sessions.Advance(ctx, session, current, vars, now)
		}

		node, ok := graph.Node(current)
		if !ok {
			return outcomes, e.complete(ctx, session, now)
		}

		if node.Interactive() {
			// Park without evaluating; the next inbound message branches.
			if err := e.sessions.Advance(ctx, session, node.ID, vars, now); err != nil {
				return outcomes, err
			}

			e.publish(ctx, session.CompanyID, events.SessionAdvanced{
				BaseEvent: e.newBase(events.SessionAdvancedEvent, session.CompanyID, now),
				Key:       session.Key(),
				NodeID:    node.ID,
			})

			return outcomes, nil
		}

		if req, ok := e.buildNodeRequest(graph.Definition(), node, msg, data); ok {
			outcome := e.dispatcher.Dispatch(ctx, req)
			outcomes = append(outcomes, outcome)
			e.publishOutcome(ctx, session.CompanyID, outcome, now)
		}

		next := graph.DefaultEdge(current)
		if next == nil {
			return outcomes, e.complete(ctx, session, now)
		}

		current = next.Target
	}
}

// buildNodeRequest converts a send-message or action node into an immutable
// dispatch request. Trigger nodes produce nothing.
func (e *Executor) buildNodeRequest(def *models.FlowDefinition, node *models.Node, msg events.InboundMessage, data map[string]any) (models.ActionRequest, bool) {
	switch node.Type {
	case models.NodeTypeSendMessage:
		return models.ActionRequest{
			Type:      models.ActionSendMessage,
			CompanyID: msg.CompanyID,
			TargetID:  msg.ConversationID,
			Params: map[string]any{
				"message_id": node.Data.MessageID,
				"data":       data,
			},
			SourceFlowID: def.ID,
		}, true
	case models.NodeTypeAction:
		params := template.RenderParams(node.Data.ActionParams, data)

		return models.ActionRequest{
			Type:         node.Data.Action,
			CompanyID:    msg.CompanyID,
			TargetID:     template.Render(node.Data.TargetID, data),
			Params:       params,
			SourceFlowID: def.ID,
		}, true
	default:
		return models.ActionRequest{}, false
	}
}

func (e *Executor) complete(ctx context.Context, session *models.FlowSession, now time.Time) error {
	if err := e.sessions.Complete(ctx, session); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Session completed",
		"company_id", session.CompanyID, "conversation_id", session.ConversationID, "flow_id", session.FlowID)
	e.publish(ctx, session.CompanyID, events.SessionCompleted{
		BaseEvent: e.newBase(events.SessionCompletedEvent, session.CompanyID, now),
		Key:       session.Key(),
	})

	return nil
}

func (e *Executor) publishOutcome(ctx context.Context, companyID string, outcome models.ActionOutcome, now time.Time) {
	if outcome.Success {
		e.publish(ctx, companyID, events.ActionDispatched{
			BaseEvent: e.newBase(events.ActionDispatchedEvent, companyID, now),
			Outcome:   outcome,
		})

		return
	}

	e.publish(ctx, companyID, events.ActionFailed{
		BaseEvent: e.newBase(events.ActionFailedEvent, companyID, now),
		Outcome:   outcome,
	})
}

func (e *Executor) publish(ctx context.Context, companyID string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, companyID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish audit event",
			"event_type", event.GetType(), "error", err)
	}
}

func (e *Executor) newBase(eventType events.EventType, companyID string, now time.Time) events.BaseEvent {
	return events.BaseEvent{
		ID:        "evt-" + uuid.New().String()[:8],
		Type:      eventType,
		CompanyID: companyID,
		Timestamp: now,
	}
}

// captureVariable stores the raw reply text under the condition node's
// variable name, if one is configured.
func captureVariable(data models.NodeData, text string) map[string]string {
	if data.Variable == "" {
		return nil
	}

	return map[string]string{data.Variable: strings.TrimSpace(text)}
}

// buildData assembles the evaluation context shared by condition nodes and
// placeholder rendering: the message payload, the message text under
// message.text, and session variables under vars.
func buildData(msg events.InboundMessage, vars map[string]string) map[string]any {
	data := make(map[string]any, len(msg.Payload)+2)
	for k, v := range msg.Payload {
		data[k] = v
	}

	data["message"] = map[string]any{"text": msg.Text}

	if len(vars) > 0 {
		varData := make(map[string]any, len(vars))
		for k, v := range vars {
			varData[k] = v
		}

		data["vars"] = varData
	}

	return data
}

func merged(base map[string]string, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return base
	}

	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}

	for k, v := range extra {
		out[k] = v
	}

	return out
}
