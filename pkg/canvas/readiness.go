// Package canvas compiles workflow definitions into positioned editable
// graphs and collapses edited graphs back into definitions.
package canvas

import (
	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/models"
)

// ReadinessState classifies whether a step node's resource references
// currently resolve. Trigger and end nodes carry no readiness.
type ReadinessState string

const (
	// ReadinessReady means every resource reference on the node resolves.
	ReadinessReady ReadinessState = "ready"
	// ReadinessDraft means the step has no reference configured yet.
	ReadinessDraft ReadinessState = "draft"
	// ReadinessWarning means references resolve but a branch target points at
	// a step that no longer exists.
	ReadinessWarning ReadinessState = "warning"
	// ReadinessError means a reference is set but resolves to nothing.
	ReadinessError ReadinessState = "error"
)

// Classify returns the readiness of a single step against the known-agent
// set. It is a pure decision table: resolved reference → ready, no reference
// → draft, set-but-unresolved → error. Composite kinds (parallel,
// conditional, loop) aggregate the rule branch-wise; one bad reference taints
// the whole node.
func Classify(step models.WorkflowStep, known *agents.Directory) ReadinessState {
	if known == nil {
		known = agents.NewDirectory(nil)
	}

	switch step.Type {
	case models.StepKindAgent:
		return classifyAgentRef(step.Agent, known)
	case models.StepKindConditional:
		return classifyClassifierRef(step.Conditional, known)
	case models.StepKindParallel:
		return classifyParallel(step.Parallel, known)
	case models.StepKindLoop:
		return classifyLoop(step.Loop, known)
	case models.StepKindApproval:
		return classifyApproval(step.Approval)
	default:
		return ReadinessError
	}
}

func classifyAgentRef(cfg *models.AgentStep, known *agents.Directory) ReadinessState {
	if cfg == nil {
		return ReadinessDraft
	}

	if cfg.AgentID != "" {
		if _, ok := known.ByID(cfg.AgentID); ok {
			return ReadinessReady
		}

		return ReadinessError
	}

	if _, ok := known.ResolveAgentRef("", cfg.SuggestedAgent); ok {
		return ReadinessReady
	}

	return ReadinessDraft
}

func classifyClassifierRef(cfg *models.ConditionalStep, known *agents.Directory) ReadinessState {
	if cfg == nil || cfg.ClassifierID == "" {
		return ReadinessDraft
	}

	if _, ok := known.ByID(cfg.ClassifierID); ok {
		return ReadinessReady
	}

	return ReadinessError
}

func classifyParallel(cfg *models.ParallelStep, known *agents.Directory) ReadinessState {
	if cfg == nil || len(cfg.Branches) == 0 {
		return ReadinessDraft
	}

	states := make([]ReadinessState, 0, len(cfg.Branches))

	for _, branch := range cfg.Branches {
		if branch.AgentID == "" {
			states = append(states, ReadinessDraft)

			continue
		}

		if _, ok := known.ByID(branch.AgentID); ok {
			states = append(states, ReadinessReady)
		} else {
			states = append(states, ReadinessError)
		}
	}

	return combineStates(states)
}

// classifyLoop aggregates the references of the embedded body. A body with
// nothing to resolve is ready.
func classifyLoop(cfg *models.LoopStep, known *agents.Directory) ReadinessState {
	if cfg == nil {
		return ReadinessReady
	}

	states := make([]ReadinessState, 0, len(cfg.Body))
	for _, inner := range cfg.Body {
		states = append(states, Classify(inner, known))
	}

	return combineStates(states)
}

func classifyApproval(cfg *models.ApprovalStep) ReadinessState {
	if cfg == nil || len(cfg.Approvers) == 0 {
		return ReadinessDraft
	}

	return ReadinessReady
}

// combineStates folds branch states with precedence
// error > draft > warning > ready. An empty input is vacuously ready.
func combineStates(states []ReadinessState) ReadinessState {
	combined := ReadinessReady

	for _, state := range states {
		if rankState(state) > rankState(combined) {
			combined = state
		}
	}

	return combined
}

func rankState(state ReadinessState) int {
	switch state {
	case ReadinessReady:
		return 0
	case ReadinessWarning:
		return 1
	case ReadinessDraft:
		return 2
	case ReadinessError:
		return 3
	default:
		return 0
	}
}
