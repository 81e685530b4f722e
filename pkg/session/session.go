// Package session owns the in-memory canvas for one editing surface: the
// graph being mutated by user events, the unsaved-changes flag, and the
// guard that keeps saves from overlapping.
package session

import (
	"errors"
	"slices"
	"sync"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/canvas"
	"github.com/flowplane/flowplane/pkg/models"
)

var (
	ErrSaveInFlight    = errors.New("a save is already in flight")
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrDuplicateEdge   = errors.New("edge already exists")
	ErrDuplicateNode   = errors.New("node id already on the canvas")
	ErrBoundaryNode    = errors.New("trigger and end nodes cannot be edited")
	ErrPayloadMismatch = errors.New("payload type does not match node type")
	ErrUnknownStepKind = errors.New("unknown step kind")
)

// Session holds one workflow's editable graph. All methods are safe for
// concurrent use; the translation work itself is synchronous and happens
// under the session lock.
//
// The dirty flag arms on every user edit and disarms when a save completes
// with no edits interleaved — completing a save never re-arms it, and edits
// that arrive while the save is running keep it armed.
type Session struct {
	mu       sync.Mutex
	workflow *models.WorkflowDefinition
	graph    *canvas.Graph
	agents   *agents.Directory
	dirty    bool
	saving   bool
	gen      uint64
	saveGen  uint64
}

// New compiles the definition and opens an editing session over the result.
func New(def *models.WorkflowDefinition, known *agents.Directory) *Session {
	if known == nil {
		known = agents.NewDirectory(nil)
	}

	return &Session{
		workflow: def,
		graph:    canvas.Compile(def, nil, canvas.BuildContext{Agents: known}),
		agents:   known,
	}
}

// Graph returns a snapshot of the current nodes and edges. Payload slices
// are shared with the live graph; edits replace payloads wholesale, so the
// snapshot stays internally consistent.
func (s *Session) Graph() canvas.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return canvas.Graph{
		Nodes: slices.Clone(s.graph.Nodes),
		Edges: slices.Clone(s.graph.Edges),
	}
}

// Definition collapses the current graph into a definition without touching
// the save state.
func (s *Session) Definition() *models.WorkflowDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()

	return canvas.Decompile(s.graph, s.workflow)
}

// Dirty reports whether there are unsaved user edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Saving reports whether a save is currently in flight.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saving
}

func (s *Session) touch() {
	s.dirty = true
	s.gen++
}

// MoveNode repositions a node. Boundary nodes can be moved like any other.
func (s *Session) MoveNode(id string, pos models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.graph.NodeByID(id)
	if node == nil {
		return ErrNodeNotFound
	}

	node.Position = pos
	s.touch()

	return nil
}

// Connect adds an edge between two existing nodes.
func (s *Session) Connect(source, target, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph.NodeByID(source) == nil || s.graph.NodeByID(target) == nil {
		return ErrNodeNotFound
	}

	edge := canvas.NewEdge(source, target, label)

	for _, existing := range s.graph.Edges {
		if existing.ID == edge.ID {
			return ErrDuplicateEdge
		}
	}

	s.graph.Edges = append(s.graph.Edges, edge)
	s.touch()

	return nil
}

// Disconnect removes the edge with the given id.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, edge := range s.graph.Edges {
		if edge.ID == edgeID {
			s.graph.Edges = append(s.graph.Edges[:i], s.graph.Edges[i+1:]...)
			s.touch()

			return nil
		}
	}

	return ErrEdgeNotFound
}

// AddNode places a new step on the canvas at the given position.
func (s *Session) AddNode(step models.WorkflowStep, pos models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph.NodeByID(step.ID) != nil {
		return ErrDuplicateNode
	}

	node, ok := canvas.NewStepNode(step, s.buildContext())
	if !ok {
		return ErrUnknownStepKind
	}

	node.Position = pos
	s.graph.Nodes = append(s.graph.Nodes, node)
	s.touch()

	return nil
}

// RemoveNode deletes a step node and every edge touching it.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.graph.NodeByID(id)
	if node == nil {
		return ErrNodeNotFound
	}

	if node.IsBoundary() {
		return ErrBoundaryNode
	}

	nodes := s.graph.Nodes[:0]

	for _, n := range s.graph.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}

	s.graph.Nodes = nodes

	edges := s.graph.Edges[:0]

	for _, e := range s.graph.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}

	s.graph.Edges = edges
	s.touch()

	return nil
}

// UpdateNodeData replaces a step node's editable payload. Derived display
// fields and readiness are recomputed immediately against the current agent
// set.
func (s *Session) UpdateNodeData(id string, data canvas.NodeData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.graph.NodeByID(id)
	if node == nil {
		return ErrNodeNotFound
	}

	if node.IsBoundary() {
		return ErrBoundaryNode
	}

	if canvas.TypeOf(data) != node.Type {
		return ErrPayloadMismatch
	}

	node.Data = data
	*node = canvas.RefreshNode(*node, s.buildContext())
	s.touch()

	return nil
}

// RefreshAgents swaps in a new known-agent set and re-derives display names
// and readiness on every step node. Positions, connections, and pending
// user edits are left exactly as they are; the dirty flag does not move.
func (s *Session) RefreshAgents(known *agents.Directory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if known == nil {
		known = agents.NewDirectory(nil)
	}

	s.agents = known
	bctx := s.buildContext()

	for i, node := range s.graph.Nodes {
		if node.IsBoundary() {
			continue
		}

		s.graph.Nodes[i] = canvas.RefreshNode(node, bctx)
	}
}

// BeginSave collapses the graph into the definition to persist and marks
// the save in flight. A second BeginSave before CompleteSave or AbortSave
// fails with ErrSaveInFlight.
func (s *Session) BeginSave() (*models.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving {
		return nil, ErrSaveInFlight
	}

	s.saving = true
	s.saveGen = s.gen

	return canvas.Decompile(s.graph, s.workflow), nil
}

// CompleteSave records the persisted definition as the new baseline. The
// dirty flag clears only if no user edit arrived since BeginSave.
func (s *Session) CompleteSave(saved *models.WorkflowDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.saving {
		return
	}

	s.saving = false

	if saved != nil {
		s.workflow = saved
	}

	if s.gen == s.saveGen {
		s.dirty = false
	}
}

// AbortSave releases the save guard after a failed persistence call. Edits
// stay marked unsaved.
func (s *Session) AbortSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false
}

// buildContext assembles the factory context from the live graph, so branch
// target names reflect the canvas as it is now. Callers hold s.mu.
func (s *Session) buildContext() canvas.BuildContext {
	return canvas.BuildContext{
		Agents: s.agents,
		Steps:  canvas.Decompile(s.graph, s.workflow).Steps,
	}
}
