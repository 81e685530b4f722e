// Package events defines the lifecycle events published when workflows,
// canvases, and agents change.
package events

import (
	"time"
)

type EventType string

// Topic is the single stream all lifecycle events are published to.
const Topic = "flowplane.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	// Canvas events.
	CanvasSavedEvent EventType = "canvas.saved"
	LayoutSavedEvent EventType = "canvas.layout.saved"

	// Agent registry events.
	AgentRegisteredEvent EventType = "agent.registered"
	AgentRemovedEvent    EventType = "agent.removed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type WorkflowCreated struct {
	BaseEvent

	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name,omitempty"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	StepCount  int    `json:"step_count"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// CanvasSaved fires when an edited graph is collapsed back into its
// definition and persisted.
type CanvasSaved struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

func (c CanvasSaved) GetType() EventType {
	return CanvasSavedEvent
}

// LayoutSaved fires when only node positions were persisted, with the
// definition untouched.
type LayoutSaved struct {
	BaseEvent

	WorkflowID    string `json:"workflow_id"`
	PositionCount int    `json:"position_count"`
}

func (l LayoutSaved) GetType() EventType {
	return LayoutSavedEvent
}

type AgentRegistered struct {
	BaseEvent

	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name,omitempty"`
	AgentType string `json:"agent_type,omitempty"`
}

func (a AgentRegistered) GetType() EventType {
	return AgentRegisteredEvent
}

type AgentRemoved struct {
	BaseEvent

	AgentID string `json:"agent_id"`
}

func (a AgentRemoved) GetType() EventType {
	return AgentRemovedEvent
}
