package canvas

import (
	"slices"
	"sort"

	"github.com/flowplane/flowplane/pkg/models"
)

// Execution-policy fallbacks for steps created on the canvas. Steps that
// already exist in the definition keep their stored policy verbatim.
const (
	DefaultStepTimeout = 120
	DefaultStepRetries = 0
	DefaultStepOnError = "fail"
)

// Decompile collapses an edited graph back into a workflow definition.
// Boundary nodes are dropped; the remaining nodes are ordered by vertical
// position (ties broken by horizontal position, then id) and rebuilt into
// typed steps. Fields the canvas does not model — execution policy, the
// workflow's own metadata, trigger, context — are carried over from the
// original definition, so compiling and decompiling without edits returns
// the definition unchanged.
func Decompile(g *Graph, original *models.WorkflowDefinition) *models.WorkflowDefinition {
	def := &models.WorkflowDefinition{}

	originalByID := make(map[string]models.WorkflowStep)

	if original != nil {
		def.ID = original.ID
		def.Name = original.Name
		def.Description = original.Description
		def.Context = original.Context
		def.Trigger = original.Trigger
		def.CreatedAt = original.CreatedAt
		def.UpdatedAt = original.UpdatedAt

		for _, step := range original.Steps {
			originalByID[step.ID] = step
		}
	}

	var stepNodes []Node

	if g != nil {
		for _, node := range g.Nodes {
			if node.IsBoundary() {
				continue
			}

			stepNodes = append(stepNodes, node)
		}
	}

	sort.SliceStable(stepNodes, func(i, j int) bool {
		a, b := stepNodes[i], stepNodes[j]
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}

		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}

		return a.ID < b.ID
	})

	var steps []models.WorkflowStep

	for _, node := range stepNodes {
		step, ok := stepFromNode(node)
		if !ok {
			continue
		}

		if orig, exists := originalByID[node.ID]; exists {
			if step.Name == orig.DisplayName() {
				step.Name = orig.Name
			}

			step.Timeout = orig.Timeout
			step.Retries = orig.Retries
			step.OnError = orig.OnError
		} else {
			if step.Name == step.ID {
				step.Name = ""
			}

			step.Timeout = DefaultStepTimeout
			step.Retries = DefaultStepRetries
			step.OnError = DefaultStepOnError
		}

		steps = append(steps, step)
	}

	def.Steps = steps

	if len(steps) > 0 {
		def.EntryStep = steps[0].ID
	}

	return def
}

// stepFromNode rebuilds the typed step from a node's editable payload. The
// bool is false for payloads that do not map to a step kind. Config structs
// are only allocated when at least one field is set, so a step that was
// never configured stays unconfigured.
func stepFromNode(node Node) (models.WorkflowStep, bool) {
	step := models.WorkflowStep{ID: node.ID}

	switch data := node.Data.(type) {
	case AgentNodeData:
		step.Type = models.StepKindAgent
		step.Name = data.Label

		var suggested *models.SuggestedAgent

		if data.SuggestedAgent != nil {
			s := *data.SuggestedAgent
			suggested = &s
		}

		if data.AgentID != "" || data.Input != "" || suggested != nil {
			step.Agent = &models.AgentStep{
				AgentID:        data.AgentID,
				Input:          data.Input,
				SuggestedAgent: suggested,
			}
		}
	case ConditionalNodeData:
		step.Type = models.StepKindConditional
		step.Name = data.Label

		branches, defaultTarget := branchMapFromList(data.Branches)

		if data.ClassifierID != "" || branches != nil || defaultTarget != "" {
			step.Conditional = &models.ConditionalStep{
				ClassifierID: data.ClassifierID,
				Branches:     branches,
				Default:      defaultTarget,
			}
		}
	case ParallelNodeData:
		step.Type = models.StepKindParallel
		step.Name = data.Label

		var branches []models.ParallelBranch

		for _, view := range data.Branches {
			branches = append(branches, models.ParallelBranch{
				ID:      view.ID,
				AgentID: view.AgentID,
				Input:   view.Input,
				Timeout: view.Timeout,
			})
		}

		if branches != nil || data.Aggregation != "" {
			step.Parallel = &models.ParallelStep{
				Branches:    branches,
				Aggregation: data.Aggregation,
			}
		}
	case LoopNodeData:
		step.Type = models.StepKindLoop
		step.Name = data.Label

		configured := data.Mode != "" || data.Count != 0 || data.Items != "" ||
			data.Until != "" || data.MaxIterations != 0 || len(data.Body) > 0

		if configured {
			step.Loop = &models.LoopStep{
				Mode:          data.Mode,
				Count:         data.Count,
				Items:         data.Items,
				Until:         data.Until,
				MaxIterations: data.MaxIterations,
				Body:          slices.Clone(data.Body),
			}
		}
	case ApprovalNodeData:
		step.Type = models.StepKindApproval
		step.Name = data.Label

		if len(data.Approvers) > 0 || data.Prompt != "" {
			step.Approval = &models.ApprovalStep{
				Approvers: slices.Clone(data.Approvers),
				Prompt:    data.Prompt,
			}
		}
	default:
		return models.WorkflowStep{}, false
	}

	return step, true
}

// branchMapFromList inverts the ordered branch list back into the
// condition→target map plus the default target. The last entry labeled
// default takes the default slot; any earlier entry with that label returns
// to the map, mirroring how the list was built.
func branchMapFromList(list []Branch) (map[string]string, string) {
	defaultIdx := -1

	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Condition == DefaultBranchLabel {
			defaultIdx = i

			break
		}
	}

	var branches map[string]string

	for i, branch := range list {
		if i == defaultIdx {
			continue
		}

		if branches == nil {
			branches = make(map[string]string, len(list))
		}

		branches[branch.Condition] = branch.TargetStepID
	}

	defaultTarget := ""
	if defaultIdx >= 0 {
		defaultTarget = list[defaultIdx].TargetStepID
	}

	return branches, defaultTarget
}
