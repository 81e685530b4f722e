// Package models defines the core domain models for canvas-edited workflow definitions.
package models

import "time"

// WorkflowDefinition is the declarative form of a workflow: an ordered list of
// typed steps plus an open-ended context bag. The canvas representation is
// derived from it and collapsed back into it on save; everything the canvas
// does not visualize (execution policy fields, unrelated context keys) must
// survive that round trip untouched.
type WorkflowDefinition struct {
	ID          string         `json:"id"                   validate:"required"`
	Name        string         `json:"name,omitempty"       validate:"omitempty,min=3"`
	Description string         `json:"description,omitempty"`
	Steps       []WorkflowStep `json:"steps"`
	EntryStep   string         `json:"entry_step,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Trigger     *Trigger       `json:"trigger,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
	UpdatedAt   time.Time      `json:"updated_at,omitzero"`
}

// StepByID returns the step with the given identifier, or nil.
func (d *WorkflowDefinition) StepByID(id string) *WorkflowStep {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}

	return nil
}

// HasStep reports whether a step with the given identifier exists.
func (d *WorkflowDefinition) HasStep(id string) bool {
	return d.StepByID(id) != nil
}
