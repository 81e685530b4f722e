package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/models"
)

// One workflow exercising every step kind, with policy overrides, a
// suggested-but-unbound agent, and branch targets that skip ahead.
func richDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          "wf-onboarding",
		Name:        "Customer Onboarding",
		Description: "Routes new signups",
		EntryStep:   "collect",
		Trigger:     &models.Trigger{Type: models.TriggerTypeManual},
		Steps: []models.WorkflowStep{
			{
				ID:      "collect",
				Type:    models.StepKindAgent,
				Name:    "Collect Details",
				Timeout: 300,
				Retries: 2,
				OnError: "continue",
				Agent:   &models.AgentStep{AgentID: "agent-1", Input: "{{signup}}"},
			},
			{
				ID:   "enrich",
				Type: models.StepKindAgent,
				Agent: &models.AgentStep{
					SuggestedAgent: &models.SuggestedAgent{Name: "Researcher", Goal: "enrich the lead"},
				},
			},
			{
				ID:   "route",
				Type: models.StepKindConditional,
				Conditional: &models.ConditionalStep{
					ClassifierID: "classifier-1",
					Branches:     map[string]string{"enterprise": "fanout", "self-serve": "retry-loop"},
					Default:      "signoff",
				},
			},
			{
				ID:   "fanout",
				Type: models.StepKindParallel,
				Parallel: &models.ParallelStep{
					Branches: []models.ParallelBranch{
						{ID: "b1", AgentID: "agent-1", Input: "{{account}}", Timeout: 60},
						{ID: "b2", AgentID: "agent-2"},
					},
					Aggregation: "merge",
				},
			},
			{
				ID:   "retry-loop",
				Type: models.StepKindLoop,
				Loop: &models.LoopStep{
					Mode:          models.LoopModeUntil,
					Until:         "{{approved}}",
					MaxIterations: 5,
					Body: []models.WorkflowStep{
						{ID: "nudge", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-2"}},
					},
				},
			},
			{
				ID:   "signoff",
				Type: models.StepKindApproval,
				Approval: &models.ApprovalStep{
					Approvers: []string{"ops@flowplane.dev"},
					Prompt:    "Approve onboarding?",
				},
			},
		},
	}
}

func TestRoundTrip_PreservesDefinition(t *testing.T) {
	t.Parallel()

	def := richDefinition()

	graph := Compile(def, nil, BuildContext{Agents: knownAgents()})
	back := Decompile(graph, def)

	assert.Equal(t, def, back)
}

func TestRoundTrip_Idempotent(t *testing.T) {
	t.Parallel()

	def := richDefinition()

	once := Decompile(Compile(def, nil, BuildContext{Agents: knownAgents()}), def)
	twice := Decompile(Compile(once, nil, BuildContext{Agents: knownAgents()}), once)

	assert.Equal(t, once, twice)
}

func TestDecompile_NewNodeGetsPolicyDefaults(t *testing.T) {
	t.Parallel()

	graph := &Graph{
		Nodes: []Node{
			NewTriggerNode(nil),
			{
				ID:       "n1",
				Type:     NodeTypeAgent,
				Position: models.Position{X: 100, Y: 200},
				Data: AgentNodeData{
					Label:     "Fresh Agent",
					AgentID:   "agent-1",
					Readiness: ReadinessReady,
				},
			},
			NewEndNode(),
		},
		Edges: []Edge{
			NewEdge(TriggerNodeID, "n1", ""),
			NewEdge("n1", EndNodeID, ""),
		},
	}

	def := Decompile(graph, &models.WorkflowDefinition{ID: "w"})

	require.Len(t, def.Steps, 1)

	step := def.Steps[0]
	assert.Equal(t, "n1", step.ID)
	assert.Equal(t, "Fresh Agent", step.Name)
	assert.Equal(t, DefaultStepTimeout, step.Timeout)
	assert.Equal(t, DefaultStepRetries, step.Retries)
	assert.Equal(t, DefaultStepOnError, step.OnError)
	assert.Equal(t, "n1", def.EntryStep)
}

func TestDecompile_VisualOrderDrivesStepOrder(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		ID: "w",
		Steps: []models.WorkflowStep{
			{ID: "s1", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-1"}},
			{ID: "s2", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-2"}},
		},
	}

	graph := Compile(def, nil, BuildContext{Agents: knownAgents()})

	// Drag s2 above s1.
	graph.NodeByID("s1").Position = models.Position{X: 100, Y: 500}
	graph.NodeByID("s2").Position = models.Position{X: 100, Y: 100}

	back := Decompile(graph, def)

	require.Len(t, back.Steps, 2)
	assert.Equal(t, "s2", back.Steps[0].ID)
	assert.Equal(t, "s1", back.Steps[1].ID)
	assert.Equal(t, "s2", back.EntryStep)
}

func TestDecompile_TiesBreakOnXThenID(t *testing.T) {
	t.Parallel()

	graph := &Graph{
		Nodes: []Node{
			{ID: "b", Type: NodeTypeAgent, Position: models.Position{X: 300, Y: 100}, Data: AgentNodeData{Label: "b"}},
			{ID: "a", Type: NodeTypeAgent, Position: models.Position{X: 100, Y: 100}, Data: AgentNodeData{Label: "a"}},
			{ID: "d", Type: NodeTypeAgent, Position: models.Position{X: 100, Y: 300}, Data: AgentNodeData{Label: "d"}},
			{ID: "c", Type: NodeTypeAgent, Position: models.Position{X: 100, Y: 300}, Data: AgentNodeData{Label: "c"}},
		},
	}

	def := Decompile(graph, nil)

	got := make([]string, 0, len(def.Steps))
	for _, step := range def.Steps {
		got = append(got, step.ID)
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestDecompile_RemovedNodeDropsStep(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		ID: "w",
		Steps: []models.WorkflowStep{
			{ID: "s1", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-1"}},
			{ID: "s2", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-2"}},
		},
	}

	graph := Compile(def, nil, BuildContext{Agents: knownAgents()})

	kept := graph.Nodes[:0]

	for _, node := range graph.Nodes {
		if node.ID != "s2" {
			kept = append(kept, node)
		}
	}

	graph.Nodes = kept

	back := Decompile(graph, def)

	require.Len(t, back.Steps, 1)
	assert.Equal(t, "s1", back.Steps[0].ID)
}

func TestDecompile_RenamedLabelBecomesName(t *testing.T) {
	t.Parallel()

	def := &models.WorkflowDefinition{
		ID: "w",
		Steps: []models.WorkflowStep{
			{ID: "s1", Type: models.StepKindAgent, Name: "Old Name", Agent: &models.AgentStep{AgentID: "agent-1"}},
			{ID: "s2", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-2"}},
		},
	}

	graph := Compile(def, nil, BuildContext{Agents: knownAgents()})

	node := graph.NodeByID("s1")
	data := node.Data.(AgentNodeData)
	data.Label = "New Name"
	node.Data = data

	back := Decompile(graph, def)

	assert.Equal(t, "New Name", back.Steps[0].Name)
	// Unrenamed step keeps its empty stored name instead of absorbing the
	// id echo shown on the canvas.
	assert.Equal(t, "", back.Steps[1].Name)
}

func TestBranchMapFromList(t *testing.T) {
	t.Parallel()

	branches, defaultTarget := branchMapFromList([]Branch{
		{Condition: "a", TargetStepID: "s1"},
		{Condition: "b", TargetStepID: "s2"},
		{Condition: DefaultBranchLabel, TargetStepID: "s3"},
	})

	assert.Equal(t, map[string]string{"a": "s1", "b": "s2"}, branches)
	assert.Equal(t, "s3", defaultTarget)
}

// A stored branch literally keyed "default" coexists with the default
// slot: the last entry wins the slot, the earlier one returns to the map.
func TestBranchMapFromList_DuplicateDefaultLabel(t *testing.T) {
	t.Parallel()

	branches, defaultTarget := branchMapFromList([]Branch{
		{Condition: DefaultBranchLabel, TargetStepID: "x"},
		{Condition: DefaultBranchLabel, TargetStepID: "y"},
	})

	assert.Equal(t, map[string]string{DefaultBranchLabel: "x"}, branches)
	assert.Equal(t, "y", defaultTarget)
}

func TestBranchMapFromList_Empty(t *testing.T) {
	t.Parallel()

	branches, defaultTarget := branchMapFromList(nil)

	assert.Nil(t, branches)
	assert.Empty(t, defaultTarget)
}
