// Package validation checks workflow definitions before they are persisted:
// structural shape against a JSON Schema and the semantic rules the schema
// cannot express.
package validation

import (
	"fmt"

	"github.com/flowplane/flowplane/pkg/models"
)

// Issue codes. Errors block a save; warnings are surfaced alongside the
// saved definition.
const (
	CodeSchemaViolation  = "SCHEMA_VIOLATION"
	CodeMissingID        = "MISSING_ID"
	CodeMissingStepID    = "MISSING_STEP_ID"
	CodeDuplicateStepID  = "DUPLICATE_STEP_ID"
	CodeInvalidStep      = "INVALID_STEP"
	CodeInvalidTrigger   = "INVALID_TRIGGER"
	CodeInvalidLoop      = "INVALID_LOOP"
	CodeDanglingTarget   = "DANGLING_TARGET"
	CodeUnknownEntryStep = "UNKNOWN_ENTRY_STEP"
)

// Issue is one finding against a definition.
type Issue struct {
	Code   string `json:"code"`
	StepID string `json:"step_id,omitempty"`
	Detail string `json:"detail"`
}

// Result partitions findings by severity.
type Result struct {
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

func (r *Result) AddError(code, stepID, detail string) {
	r.Errors = append(r.Errors, Issue{Code: code, StepID: stepID, Detail: detail})
}

func (r *Result) AddWarning(code, stepID, detail string) {
	r.Warnings = append(r.Warnings, Issue{Code: code, StepID: stepID, Detail: detail})
}

// Merge folds another result into this one.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Valid reports whether the result carries no errors. Warnings do not block.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Definition runs the semantic checks: identifier presence, step id
// uniqueness, per-kind config coherence, loop-mode sanity, trigger
// validity, and branch-target resolution. Dangling branch targets are
// warnings — the canvas renders them — while structural breakage is an
// error.
func Definition(def *models.WorkflowDefinition) Result {
	var result Result

	if def == nil {
		result.AddError(CodeMissingID, "", "definition is empty")

		return result
	}

	if def.ID == "" {
		result.AddError(CodeMissingID, "", "workflow id is required")
	}

	seen := make(map[string]bool, len(def.Steps))

	for _, step := range def.Steps {
		if step.ID == "" {
			result.AddError(CodeMissingStepID, "", "step without an id")

			continue
		}

		if seen[step.ID] {
			result.AddError(CodeDuplicateStepID, step.ID, fmt.Sprintf("step id %q used more than once", step.ID))
		}

		seen[step.ID] = true

		validateStep(step, &result)
	}

	for _, step := range def.Steps {
		if step.Conditional == nil {
			continue
		}

		for label, target := range step.Conditional.Branches {
			if target != "" && !def.HasStep(target) {
				result.AddWarning(CodeDanglingTarget, step.ID,
					fmt.Sprintf("branch %q points at unknown step %q", label, target))
			}
		}

		if target := step.Conditional.Default; target != "" && !def.HasStep(target) {
			result.AddWarning(CodeDanglingTarget, step.ID,
				fmt.Sprintf("default branch points at unknown step %q", target))
		}
	}

	if def.EntryStep != "" && !def.HasStep(def.EntryStep) {
		result.AddWarning(CodeUnknownEntryStep, "",
			fmt.Sprintf("entry step %q is not in the step collection", def.EntryStep))
	}

	if def.Trigger != nil {
		if err := def.Trigger.Validate(); err != nil {
			result.AddError(CodeInvalidTrigger, "", err.Error())
		}
	}

	return result
}

func validateStep(step models.WorkflowStep, result *Result) {
	if err := step.Validate(); err != nil {
		result.AddError(CodeInvalidStep, step.ID, err.Error())

		return
	}

	if step.Loop != nil {
		validateLoop(step.ID, step.Loop, result)
	}
}

func validateLoop(stepID string, cfg *models.LoopStep, result *Result) {
	switch cfg.Mode {
	case models.LoopModeCount:
		if cfg.Count <= 0 {
			result.AddError(CodeInvalidLoop, stepID, "count loops need a positive count")
		}
	case models.LoopModeForEach:
		if cfg.Items == "" {
			result.AddError(CodeInvalidLoop, stepID, "for_each loops need an items expression")
		}
	case models.LoopModeUntil:
		if cfg.Until == "" {
			result.AddError(CodeInvalidLoop, stepID, "until loops need a condition expression")
		}
	default:
		result.AddError(CodeInvalidLoop, stepID, fmt.Sprintf("unknown loop mode %q", cfg.Mode))
	}

	if cfg.MaxIterations < 0 {
		result.AddError(CodeInvalidLoop, stepID, "max_iterations cannot be negative")
	}

	for _, inner := range cfg.Body {
		if inner.ID == "" {
			result.AddError(CodeMissingStepID, stepID, "loop body step without an id")

			continue
		}

		validateStep(inner, result)
	}
}
