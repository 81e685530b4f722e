package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flowplane/flowplane/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, events.WorkflowCreatedEvent, events.WorkflowCreated{}.GetType())
	assert.Equal(t, events.WorkflowUpdatedEvent, events.WorkflowUpdated{}.GetType())
	assert.Equal(t, events.WorkflowDeletedEvent, events.WorkflowDeleted{}.GetType())
	assert.Equal(t, events.CanvasSavedEvent, events.CanvasSaved{}.GetType())
	assert.Equal(t, events.LayoutSavedEvent, events.LayoutSaved{}.GetType())
	assert.Equal(t, events.AgentRegisteredEvent, events.AgentRegistered{}.GetType())
	assert.Equal(t, events.AgentRemovedEvent, events.AgentRemoved{}.GetType())
}

func TestCanvasSaved_JSONShape(t *testing.T) {
	t.Parallel()

	event := events.CanvasSaved{
		BaseEvent: events.BaseEvent{
			ID:        "evt-1",
			Type:      events.CanvasSavedEvent,
			Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		WorkflowID: "wf-1",
		NodeCount:  5,
		EdgeCount:  4,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "canvas.saved", decoded["type"])
	assert.Equal(t, "wf-1", decoded["workflow_id"])
	assert.InDelta(t, 5, decoded["node_count"], 0)
	assert.NotContains(t, decoded, "metadata")
}
