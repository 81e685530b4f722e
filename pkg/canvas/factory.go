package canvas

import (
	"slices"
	"sort"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/models"
)

// BuildContext carries what node construction needs beyond the step itself:
// the known agents for display resolution and readiness, the definition's
// step list for branch-target names, and the workflow's trigger
// configuration for the synthesized trigger node.
type BuildContext struct {
	Agents  *agents.Directory
	Steps   []models.WorkflowStep
	Trigger *models.Trigger
}

func (bc BuildContext) directory() *agents.Directory {
	if bc.Agents == nil {
		return agents.NewDirectory(nil)
	}

	return bc.Agents
}

func (bc BuildContext) stepName(id string) string {
	for i := range bc.Steps {
		if bc.Steps[i].ID == id {
			return bc.Steps[i].DisplayName()
		}
	}

	return ""
}

func (bc BuildContext) hasStep(id string) bool {
	for i := range bc.Steps {
		if bc.Steps[i].ID == id {
			return true
		}
	}

	return false
}

// NewTriggerNode synthesizes the entry boundary node. A workflow without an
// explicit trigger renders as manual.
func NewTriggerNode(trigger *models.Trigger) Node {
	data := TriggerNodeData{
		Label:       "Trigger",
		TriggerType: models.TriggerTypeManual,
	}

	if trigger != nil {
		data.TriggerType = trigger.Type
		data.Schedule = trigger.Schedule

		if trigger.WebhookConfig != nil {
			webhook := *trigger.WebhookConfig
			data.Webhook = &webhook
		}
	}

	return Node{ID: TriggerNodeID, Type: NodeTypeTrigger, Data: data}
}

// NewEndNode synthesizes the exit boundary node.
func NewEndNode() Node {
	return Node{ID: EndNodeID, Type: NodeTypeEnd, Data: EndNodeData{Label: "End"}}
}

// NewStepNode builds the canvas node for one workflow step. The second
// return is false when the step kind is unknown; such steps have no canvas
// representation.
func NewStepNode(step models.WorkflowStep, bctx BuildContext) (Node, bool) {
	switch step.Type {
	case models.StepKindAgent:
		return newAgentNode(step, bctx), true
	case models.StepKindConditional:
		return newConditionalNode(step, bctx), true
	case models.StepKindParallel:
		return newParallelNode(step, bctx), true
	case models.StepKindLoop:
		return newLoopNode(step, bctx), true
	case models.StepKindApproval:
		return newApprovalNode(step, bctx), true
	default:
		return Node{}, false
	}
}

func newAgentNode(step models.WorkflowStep, bctx BuildContext) Node {
	data := AgentNodeData{
		Label:     step.DisplayName(),
		Readiness: Classify(step, bctx.Agents),
	}

	if cfg := step.Agent; cfg != nil {
		data.AgentID = cfg.AgentID
		data.Input = cfg.Input

		if cfg.SuggestedAgent != nil {
			suggested := *cfg.SuggestedAgent
			data.SuggestedAgent = &suggested
		}

		if agent, ok := bctx.directory().ResolveAgentRef(cfg.AgentID, cfg.SuggestedAgent); ok {
			data.AgentName = agent.Name
			data.AgentGoal = agent.Description
		} else if cfg.SuggestedAgent != nil {
			data.AgentName = cfg.SuggestedAgent.Name
			data.AgentGoal = cfg.SuggestedAgent.Goal
		}
	}

	return Node{ID: step.ID, Type: NodeTypeAgent, Data: data}
}

func newConditionalNode(step models.WorkflowStep, bctx BuildContext) Node {
	data := ConditionalNodeData{
		Label:     step.DisplayName(),
		Readiness: Classify(step, bctx.Agents),
	}

	if cfg := step.Conditional; cfg != nil {
		data.ClassifierID = cfg.ClassifierID

		if classifier, ok := bctx.directory().ByID(cfg.ClassifierID); ok {
			data.ClassifierName = classifier.Name
		}

		labels := make([]string, 0, len(cfg.Branches))
		for label := range cfg.Branches {
			labels = append(labels, label)
		}

		sort.Strings(labels)

		for _, label := range labels {
			target := cfg.Branches[label]
			data.Branches = append(data.Branches, Branch{
				Condition:      label,
				TargetStepID:   target,
				TargetStepName: bctx.stepName(target),
			})
		}

		if cfg.Default != "" {
			data.Branches = append(data.Branches, Branch{
				Condition:      DefaultBranchLabel,
				TargetStepID:   cfg.Default,
				TargetStepName: bctx.stepName(cfg.Default),
			})
		}
	}

	// A resolvable classifier with a branch aimed at a nonexistent step is
	// still rendered, just flagged.
	if data.Readiness == ReadinessReady {
		for _, branch := range data.Branches {
			if branch.TargetStepID != "" && !bctx.hasStep(branch.TargetStepID) {
				data.Readiness = ReadinessWarning

				break
			}
		}
	}

	return Node{ID: step.ID, Type: NodeTypeConditional, Data: data}
}

func newParallelNode(step models.WorkflowStep, bctx BuildContext) Node {
	data := ParallelNodeData{
		Label:     step.DisplayName(),
		Readiness: Classify(step, bctx.Agents),
	}

	if cfg := step.Parallel; cfg != nil {
		data.Aggregation = cfg.Aggregation

		for _, branch := range cfg.Branches {
			view := ParallelBranchView{
				ID:      branch.ID,
				AgentID: branch.AgentID,
				Input:   branch.Input,
				Timeout: branch.Timeout,
			}

			if agent, ok := bctx.directory().ByID(branch.AgentID); ok {
				view.AgentName = agent.Name
			}

			data.Branches = append(data.Branches, view)
		}
	}

	return Node{ID: step.ID, Type: NodeTypeParallel, Data: data}
}

func newLoopNode(step models.WorkflowStep, bctx BuildContext) Node {
	data := LoopNodeData{
		Label:     step.DisplayName(),
		Readiness: Classify(step, bctx.Agents),
	}

	if cfg := step.Loop; cfg != nil {
		data.Mode = cfg.Mode
		data.Count = cfg.Count
		data.Items = cfg.Items
		data.Until = cfg.Until
		data.MaxIterations = cfg.MaxIterations
		data.Body = slices.Clone(cfg.Body)
	}

	return Node{ID: step.ID, Type: NodeTypeLoop, Data: data}
}

func newApprovalNode(step models.WorkflowStep, bctx BuildContext) Node {
	data := ApprovalNodeData{
		Label:     step.DisplayName(),
		Readiness: Classify(step, bctx.Agents),
	}

	if cfg := step.Approval; cfg != nil {
		data.Approvers = slices.Clone(cfg.Approvers)
		data.Prompt = cfg.Prompt
	}

	return Node{ID: step.ID, Type: NodeTypeApproval, Data: data}
}

// RefreshNode re-derives a step node's display fields and readiness from its
// own editable payload against the context's agent set: the node is collapsed
// to its step and rebuilt. Position and user edits survive; only derived
// fields change. Boundary and unrecognized nodes come back unchanged.
func RefreshNode(node Node, bctx BuildContext) Node {
	step, ok := stepFromNode(node)
	if !ok {
		return node
	}

	refreshed, ok := NewStepNode(step, bctx)
	if !ok {
		return node
	}

	refreshed.Position = node.Position

	return refreshed
}

// TypeOf maps a payload to its node type. Nil payloads map to the empty
// string.
func TypeOf(data NodeData) NodeType {
	if data == nil {
		return ""
	}

	return data.nodeType()
}
