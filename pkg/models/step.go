package models

import (
	"errors"
	"fmt"
)

// StepKind discriminates the WorkflowStep union.
type StepKind string

const (
	StepKindAgent       StepKind = "agent"
	StepKindConditional StepKind = "conditional"
	StepKindParallel    StepKind = "parallel"
	StepKindLoop        StepKind = "loop"
	StepKindApproval    StepKind = "approval"
)

// StepKinds lists every persistable step kind. Trigger and end markers are
// synthesized on the canvas and never stored as steps.
func StepKinds() []StepKind {
	return []StepKind{
		StepKindAgent,
		StepKindConditional,
		StepKindParallel,
		StepKindLoop,
		StepKindApproval,
	}
}

var ErrStepConfigMismatch = errors.New("step config does not match step type")

// WorkflowStep is a tagged union: Type selects which of the kind-specific
// config pointers is populated; exactly one must be non-nil.
//
// Timeout, Retries and OnError are execution policy passed through opaquely —
// the canvas never renders them, but they round-trip unchanged.
type WorkflowStep struct {
	ID   string   `json:"id"   validate:"required"`
	Type StepKind `json:"type" validate:"required,oneof=agent conditional parallel loop approval"`
	Name string   `json:"name,omitempty"`

	Timeout int    `json:"timeout,omitempty"`
	Retries int    `json:"retries,omitempty"`
	OnError string `json:"on_error,omitempty"`

	Agent       *AgentStep       `json:"agent,omitempty"`
	Conditional *ConditionalStep `json:"conditional,omitempty"`
	Parallel    *ParallelStep    `json:"parallel,omitempty"`
	Loop        *LoopStep        `json:"loop,omitempty"`
	Approval    *ApprovalStep    `json:"approval,omitempty"`
}

// AgentStep invokes a single agent with a templated input. SuggestedAgent is
// an optional draft payload carried when the step was authored before the
// agent existed; reference resolution may fall back to it by name.
type AgentStep struct {
	AgentID        string          `json:"agent_id,omitempty"`
	Input          string          `json:"input,omitempty"`
	SuggestedAgent *SuggestedAgent `json:"suggested_agent,omitempty"`
}

// SuggestedAgent describes an agent the user intended to create from the
// editor. Name is the matching key; Goal is display-only.
type SuggestedAgent struct {
	Name string `json:"name"`
	Goal string `json:"goal,omitempty"`
}

// ConditionalStep routes to a target step per classifier outcome. Branches
// maps a condition label to a target step id; Default is the fallback target.
type ConditionalStep struct {
	ClassifierID string            `json:"classifier_id,omitempty"`
	Branches     map[string]string `json:"branches,omitempty"`
	Default      string            `json:"default,omitempty"`
}

// ParallelStep fans out to several agent branches and aggregates the results.
type ParallelStep struct {
	Branches    []ParallelBranch `json:"branches,omitempty"`
	Aggregation string           `json:"aggregation,omitempty"`
}

type ParallelBranch struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id,omitempty"`
	Input   string `json:"input,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// LoopMode selects how a loop decides to continue.
type LoopMode string

const (
	LoopModeCount   LoopMode = "count"
	LoopModeForEach LoopMode = "for_each"
	LoopModeUntil   LoopMode = "until"
)

// LoopStep repeats its embedded body. The body steps are part of the loop,
// not of the surrounding graph: they carry no positions of their own.
type LoopStep struct {
	Mode          LoopMode       `json:"mode"`
	Count         int            `json:"count,omitempty"`
	Items         string         `json:"items,omitempty"`
	Until         string         `json:"until,omitempty"`
	MaxIterations int            `json:"max_iterations,omitempty"`
	Body          []WorkflowStep `json:"body,omitempty"`
}

// ApprovalStep gates the workflow on a human decision.
type ApprovalStep struct {
	Approvers []string `json:"approvers,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
}

// DisplayName returns the step name, falling back to the id.
func (s *WorkflowStep) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}

	return s.ID
}

// Validate checks that the populated config pointer matches Type.
func (s *WorkflowStep) Validate() error {
	configured := 0
	if s.Agent != nil {
		configured++
	}

	if s.Conditional != nil {
		configured++
	}

	if s.Parallel != nil {
		configured++
	}

	if s.Loop != nil {
		configured++
	}

	if s.Approval != nil {
		configured++
	}

	if configured > 1 {
		return fmt.Errorf("%w: step %s carries %d configs", ErrStepConfigMismatch, s.ID, configured)
	}

	var matches bool

	switch s.Type {
	case StepKindAgent:
		matches = configured == 0 || s.Agent != nil
	case StepKindConditional:
		matches = configured == 0 || s.Conditional != nil
	case StepKindParallel:
		matches = configured == 0 || s.Parallel != nil
	case StepKindLoop:
		matches = s.Loop != nil
	case StepKindApproval:
		matches = configured == 0 || s.Approval != nil
	default:
		return fmt.Errorf("unknown step type %q for step %s", s.Type, s.ID)
	}

	if !matches {
		return fmt.Errorf("%w: step %s is %q", ErrStepConfigMismatch, s.ID, s.Type)
	}

	return nil
}
