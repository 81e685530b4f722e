// Package web provides HTTP request and response types for the canvas API.
package web

import (
	"github.com/flowplane/flowplane/pkg/canvas"
	"github.com/flowplane/flowplane/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new
// workflow definition. Steps are optional: the canvas editor usually starts
// from an empty definition and fills it in over PUT /canvas.
type CreateWorkflowRequest struct {
	ID          string                `json:"id,omitempty"`
	Name        string                `json:"name"                  validate:"required,min=3"`
	Description string                `json:"description,omitempty"`
	Steps       []models.WorkflowStep `json:"steps,omitempty"`
	EntryStep   string                `json:"entry_step,omitempty"`
	Context     map[string]any        `json:"context,omitempty"`
	Trigger     *models.Trigger       `json:"trigger,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow definition. All fields are optional to support partial updates;
// a nil Steps leaves the step collection untouched.
type UpdateWorkflowRequest struct {
	Name        *string               `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string               `json:"description,omitempty"`
	Steps       []models.WorkflowStep `json:"steps,omitempty"`
	EntryStep   *string               `json:"entry_step,omitempty"`
	Context     map[string]any        `json:"context,omitempty"`
	Trigger     *models.Trigger       `json:"trigger,omitempty"`
}

// SaveCanvasRequest represents the request body for collapsing an edited
// graph back into its workflow definition.
type SaveCanvasRequest struct {
	Nodes []canvas.Node `json:"nodes" validate:"required"`
	Edges []canvas.Edge `json:"edges"`
}

// SaveLayoutRequest represents the request body for persisting node
// positions without touching the definition's steps.
type SaveLayoutRequest struct {
	Positions map[string]models.Position `json:"positions" validate:"required"`
}

// RegisterAgentRequest represents the request body for registering an agent.
type RegisterAgentRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"                  validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	AgentType   string `json:"agent_type,omitempty"`
}
