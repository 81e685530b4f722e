package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/canvas"
	"github.com/flowplane/flowplane/pkg/models"
)

func testDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:        "wf-test",
		Name:      "Test Workflow",
		EntryStep: "s1",
		Steps: []models.WorkflowStep{
			{ID: "s1", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-1"}},
			{ID: "s2", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-9"}},
		},
	}
}

func testAgents() *agents.Directory {
	return agents.NewDirectory([]models.Agent{
		{ID: "agent-1", Name: "Summarizer", Description: "Summarizes documents"},
	})
}

func TestSession_OnlyOneSaveAtATime(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	def, err := s.BeginSave()
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.True(t, s.Saving())

	_, err = s.BeginSave()
	assert.ErrorIs(t, err, ErrSaveInFlight)

	s.CompleteSave(def)
	assert.False(t, s.Saving())

	_, err = s.BeginSave()
	assert.NoError(t, err)

	s.AbortSave()

	_, err = s.BeginSave()
	assert.NoError(t, err)
}

func TestSession_DirtyLifecycle(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())
	assert.False(t, s.Dirty())

	require.NoError(t, s.MoveNode("s1", models.Position{X: 10, Y: 20}))
	assert.True(t, s.Dirty())

	def, err := s.BeginSave()
	require.NoError(t, err)

	s.CompleteSave(def)
	assert.False(t, s.Dirty())
}

func TestSession_EditDuringSaveKeepsDirty(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	require.NoError(t, s.MoveNode("s1", models.Position{X: 10, Y: 20}))

	def, err := s.BeginSave()
	require.NoError(t, err)

	// Arrives while the persistence call is still out.
	require.NoError(t, s.MoveNode("s2", models.Position{X: 30, Y: 40}))

	s.CompleteSave(def)
	assert.True(t, s.Dirty(), "the interleaved edit is still unsaved")
}

func TestSession_CompleteSaveNeverArmsDirty(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	def, err := s.BeginSave()
	require.NoError(t, err)

	updated := *def
	updated.Description = "stamped by the store"

	s.CompleteSave(&updated)
	assert.False(t, s.Dirty())

	// Stray completion without a begin is ignored.
	s.CompleteSave(def)
	assert.False(t, s.Saving())
	assert.False(t, s.Dirty())
}

func TestSession_FailedSaveKeepsEdits(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	require.NoError(t, s.MoveNode("s1", models.Position{X: 5, Y: 5}))

	_, err := s.BeginSave()
	require.NoError(t, err)

	s.AbortSave()
	assert.True(t, s.Dirty())

	_, err = s.BeginSave()
	assert.NoError(t, err)
}

func TestSession_RefreshAgentsUpdatesDisplayOnly(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	// agent-9 is unknown at load time.
	graph := s.Graph()
	node := graph.NodeByID("s2")
	require.NotNil(t, node)

	state, ok := node.Readiness()
	require.True(t, ok)
	assert.Equal(t, canvas.ReadinessError, state)

	// User edits before the refresh lands.
	require.NoError(t, s.MoveNode("s2", models.Position{X: 700, Y: 80}))
	require.NoError(t, s.Connect("s2", "s1", "retry"))

	s.RefreshAgents(agents.NewDirectory([]models.Agent{
		{ID: "agent-1", Name: "Summarizer"},
		{ID: "agent-9", Name: "Escalator", Description: "Escalates to a human"},
	}))

	graph = s.Graph()
	node = graph.NodeByID("s2")
	require.NotNil(t, node)

	data, isAgent := node.Data.(canvas.AgentNodeData)
	require.True(t, isAgent)
	assert.Equal(t, "Escalator", data.AgentName)
	assert.Equal(t, canvas.ReadinessReady, data.Readiness)

	// The edits survived.
	assert.Equal(t, models.Position{X: 700, Y: 80}, node.Position)

	found := false

	for _, edge := range graph.Edges {
		if edge.ID == "s2-s1-retry" {
			found = true
		}
	}

	assert.True(t, found, "user-made connection survived the refresh")
	assert.True(t, s.Dirty(), "refresh does not consume pending edits")
}

func TestSession_RefreshAgentsDoesNotArmDirty(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	s.RefreshAgents(testAgents())
	assert.False(t, s.Dirty())
}

func TestSession_AddNode(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	step := models.WorkflowStep{
		ID:       "gate",
		Type:     models.StepKindApproval,
		Approval: &models.ApprovalStep{Approvers: []string{"lead@flowplane.dev"}},
	}

	require.NoError(t, s.AddNode(step, models.Position{X: 420, Y: 500}))

	err := s.AddNode(step, models.Position{})
	assert.ErrorIs(t, err, ErrDuplicateNode)

	err = s.AddNode(models.WorkflowStep{ID: "weird", Type: "mystery"}, models.Position{})
	assert.ErrorIs(t, err, ErrUnknownStepKind)

	graph := s.Graph()
	node := graph.NodeByID("gate")
	require.NotNil(t, node)
	assert.Equal(t, canvas.NodeTypeApproval, node.Type)
	assert.Equal(t, models.Position{X: 420, Y: 500}, node.Position)
}

func TestSession_RemoveNodeDropsIncidentEdges(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	require.NoError(t, s.RemoveNode("s1"))

	assert.ErrorIs(t, s.RemoveNode("s1"), ErrNodeNotFound)
	assert.ErrorIs(t, s.RemoveNode(canvas.TriggerNodeID), ErrBoundaryNode)

	graph := s.Graph()
	assert.Nil(t, graph.NodeByID("s1"))

	for _, edge := range graph.Edges {
		assert.NotEqual(t, "s1", edge.Source)
		assert.NotEqual(t, "s1", edge.Target)
	}
}

func TestSession_UpdateNodeData(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		ID:    "w",
		Steps: []models.WorkflowStep{{ID: "s1", Type: models.StepKindAgent}},
	}
	s := New(def, testAgents())

	graph := s.Graph()
	node := graph.NodeByID("s1")
	require.NotNil(t, node)

	state, _ := node.Readiness()
	assert.Equal(t, canvas.ReadinessDraft, state)

	err := s.UpdateNodeData("s1", canvas.ApprovalNodeData{Label: "nope"})
	assert.ErrorIs(t, err, ErrPayloadMismatch)

	err = s.UpdateNodeData("missing", canvas.AgentNodeData{})
	assert.ErrorIs(t, err, ErrNodeNotFound)

	err = s.UpdateNodeData(canvas.EndNodeID, canvas.EndNodeData{Label: "Done"})
	assert.ErrorIs(t, err, ErrBoundaryNode)

	require.NoError(t, s.UpdateNodeData("s1", canvas.AgentNodeData{
		Label:   "Summarize",
		AgentID: "agent-1",
	}))

	graph = s.Graph()
	data, ok := graph.NodeByID("s1").Data.(canvas.AgentNodeData)
	require.True(t, ok)
	assert.Equal(t, canvas.ReadinessReady, data.Readiness)
	assert.Equal(t, "Summarizer", data.AgentName)
	assert.True(t, s.Dirty())
}

func TestSession_ConnectValidation(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	assert.ErrorIs(t, s.Connect("s1", "nowhere", ""), ErrNodeNotFound)

	require.NoError(t, s.Connect("s2", "s1", "loop-back"))
	assert.ErrorIs(t, s.Connect("s2", "s1", "loop-back"), ErrDuplicateEdge)

	assert.ErrorIs(t, s.Disconnect("not-an-edge"), ErrEdgeNotFound)
	require.NoError(t, s.Disconnect("s2-s1-loop-back"))
}

func TestSession_ConcurrentEditsAndReads(t *testing.T) {
	t.Parallel()

	s := New(testDefinition(), testAgents())

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				_ = s.MoveNode("s1", models.Position{X: float64(n), Y: float64(j)})
				_ = s.Graph()
				_ = s.Dirty()
			}
		}(i)
	}

	wg.Wait()

	assert.True(t, s.Dirty())

	graph := s.Graph()
	assert.NotNil(t, graph.NodeByID("s1"))
}
