package models

import "time"

// AgentTypeClassifier marks agents that classify input into condition labels;
// conditional steps reference these. All other agent_type values are treated
// as plain task agents.
const AgentTypeClassifier = "classifier"

// Agent is an externally-managed resource that steps reference by id. The
// canvas only resolves and displays agents; creating and running them is
// someone else's job.
type Agent struct {
	ID          string    `json:"id"          validate:"required"`
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description,omitempty"`
	AgentType   string    `json:"agent_type,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// IsClassifier reports whether the agent classifies rather than executes.
func (a *Agent) IsClassifier() bool {
	return a.AgentType == AgentTypeClassifier
}
