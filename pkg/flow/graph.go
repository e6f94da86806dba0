// Package flow holds the conversation-flow graph model and its executor.
package flow

import (
	"errors"
	"fmt"

	"github.com/zapdesk/automata/pkg/models"
)

var (
	// ErrNoEntryNode indicates no node is free of incoming edges.
	ErrNoEntryNode = errors.New("flow has no entry node")

	// ErrMultipleEntryNodes indicates more than one node has no incoming
	// edges; the entry must be unique.
	ErrMultipleEntryNodes = errors.New("flow has multiple entry nodes")

	// ErrUnreachableNode indicates a node cannot be reached from the entry.
	ErrUnreachableNode = errors.New("node unreachable from entry")

	// ErrDuplicateNode indicates two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDanglingEdge indicates an edge references an unknown node.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrMultipleDefaultEdges indicates a node has more than one unlabeled
	// outgoing edge; the default branch must be unique.
	ErrMultipleDefaultEdges = errors.New("multiple default edges")
)

// Graph is an indexed, validated view over a flow definition. It is immutable
// after construction and safe to share across goroutines.
//
// Cycles are legal: flow authors wire loops interactively. The executor
// bounds traversal instead of the graph forbidding cycles.
type Graph struct {
	def      *models.FlowDefinition
	nodes    map[string]*models.Node
	outgoing map[string][]*models.Edge
	entry    *models.Node
}

// NewGraph indexes and validates a definition. It enforces the authoring
// invariants: unique node ids, edges between known nodes, exactly one entry
// node, every node reachable from the entry, and at most one default edge
// per node.
func NewGraph(def *models.FlowDefinition) (*Graph, error) {
	g := &Graph{
		def:      def,
		nodes:    make(map[string]*models.Node, len(def.Nodes)),
		outgoing: make(map[string][]*models.Edge, len(def.Nodes)),
	}

	for i := range def.Nodes {
		node := &def.Nodes[i]

		if _, exists := g.nodes[node.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}

		g.nodes[node.ID] = node
	}

	incoming := make(map[string]int, len(def.Nodes))

	for i := range def.Edges {
		edge := &def.Edges[i]

		if _, ok := g.nodes[edge.Source]; !ok {
			return nil, fmt.Errorf("%w: source %s", ErrDanglingEdge, edge.Source)
		}

		if _, ok := g.nodes[edge.Target]; !ok {
			return nil, fmt.Errorf("%w: target %s", ErrDanglingEdge, edge.Target)
		}

		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		incoming[edge.Target]++
	}

	for nodeID, edges := range g.outgoing {
		defaults := 0

		for _, edge := range edges {
			if edge.IsDefault() {
				defaults++
			}
		}

		if defaults > 1 {
			return nil, fmt.Errorf("%w: node %s", ErrMultipleDefaultEdges, nodeID)
		}
	}

	for i := range def.Nodes {
		node := &def.Nodes[i]

		if incoming[node.ID] > 0 {
			continue
		}

		if g.entry != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrMultipleEntryNodes, g.entry.ID, node.ID)
		}

		g.entry = node
	}

	if g.entry == nil {
		return nil, ErrNoEntryNode
	}

	if err := g.checkReachability(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Graph) checkReachability() error {
	visited := make(map[string]bool, len(g.nodes))
	queue := []string{g.entry.ID}
	visited[g.entry.ID] = true

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]

		for _, edge := range g.outgoing[nodeID] {
			if !visited[edge.Target] {
				visited[edge.Target] = true
				queue = append(queue, edge.Target)
			}
		}
	}

	for nodeID := range g.nodes {
		if !visited[nodeID] {
			return fmt.Errorf("%w: %s", ErrUnreachableNode, nodeID)
		}
	}

	return nil
}

// Definition returns the underlying flow definition.
func (g *Graph) Definition() *models.FlowDefinition {
	return g.def
}

// Entry returns the unique node without incoming edges.
func (g *Graph) Entry() *models.Node {
	return g.entry
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	node, ok := g.nodes[id]

	return node, ok
}

// Outgoing returns the edges leaving a node, in definition order.
func (g *Graph) Outgoing(id string) []*models.Edge {
	return g.outgoing[id]
}

// DefaultEdge returns the unlabeled edge leaving a node, or nil. A node
// without a default edge is terminal for non-branching traversal.
func (g *Graph) DefaultEdge(id string) *models.Edge {
	for _, edge := range g.outgoing[id] {
		if edge.IsDefault() {
			return edge
		}
	}

	return nil
}

// LabeledEdge returns the outgoing edge carrying the given label, or nil.
func (g *Graph) LabeledEdge(id, label string) *models.Edge {
	for _, edge := range g.outgoing[id] {
		if !edge.IsDefault() && edge.Label == label {
			return edge
		}
	}

	return nil
}
