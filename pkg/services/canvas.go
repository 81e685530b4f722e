package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/canvas"
	"github.com/flowplane/flowplane/pkg/eventbus"
	"github.com/flowplane/flowplane/pkg/events"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/validation"
	"github.com/google/uuid"
)

// Canvas orchestrates the translators for the editing surface: compile a
// stored definition into a graph for rendering, collapse an edited graph
// back into the definition on save, and persist layout-only changes.
type Canvas struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
}

// NewCanvas creates a new canvas service. A nil publisher disables event
// publication.
func NewCanvas(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Canvas {
	return &Canvas{
		persistence: persistence,
		events:      publisher,
	}
}

// Render compiles a workflow's definition into its canvas graph, resolving
// step references against the current agent set.
func (c *Canvas) Render(ctx context.Context, workflowID string) (*canvas.Graph, error) {
	workflow, err := c.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	directory, err := c.directory(ctx)
	if err != nil {
		return nil, err
	}

	return canvas.Compile(workflow, nil, canvas.BuildContext{Agents: directory}), nil
}

// SaveCanvas collapses an edited graph into the stored definition: the
// graph's steps replace the definition's, non-visual fields merge from the
// original, the node positions are written under the reserved layout key,
// and the result is validated and persisted.
func (c *Canvas) SaveCanvas(ctx context.Context, workflowID string, graph *canvas.Graph) (*models.WorkflowDefinition, error) {
	if graph == nil {
		return nil, ErrCanvasNil
	}

	original, err := c.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow := canvas.Decompile(graph, original)
	workflow.Context = models.WithCanvasLayout(workflow.Context, models.CanvasLayout{
		Positions: graph.Positions(),
		SavedAt:   time.Now().UTC(),
	})

	result := validation.Definition(workflow)
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors))
		for _, issue := range result.Errors {
			details = append(details, issue.Detail)
		}

		return nil, NewValidationError("SaveCanvas", "INVALID_WORKFLOW", strings.Join(details, "; "), ErrInvalidWorkflow)
	}

	err = c.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	c.publish(ctx, workflowID, events.CanvasSaved{
		BaseEvent:  c.baseEvent(events.CanvasSavedEvent),
		WorkflowID: workflowID,
		NodeCount:  len(graph.Nodes),
		EdgeCount:  len(graph.Edges),
	})

	return workflow, nil
}

// SaveLayout persists node positions only, leaving the definition's steps
// untouched. Positions for nodes that no longer exist are stored as-is and
// ignored at compile time.
func (c *Canvas) SaveLayout(ctx context.Context, workflowID string, positions map[string]models.Position) (*models.WorkflowDefinition, error) {
	workflow, err := c.fetchWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.Context = models.WithCanvasLayout(workflow.Context, models.CanvasLayout{
		Positions: positions,
		SavedAt:   time.Now().UTC(),
	})

	err = c.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}

	c.publish(ctx, workflowID, events.LayoutSaved{
		BaseEvent:     c.baseEvent(events.LayoutSavedEvent),
		WorkflowID:    workflowID,
		PositionCount: len(positions),
	})

	return workflow, nil
}

func (c *Canvas) fetchWorkflow(ctx context.Context, workflowID string) (*models.WorkflowDefinition, error) {
	workflow, err := c.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// directory snapshots the known-agent set for reference resolution.
func (c *Canvas) directory(ctx context.Context) (*agents.Directory, error) {
	list, err := c.persistence.AgentRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	snapshot := make([]models.Agent, 0, len(list))
	for _, agent := range list {
		snapshot = append(snapshot, *agent)
	}

	return agents.NewDirectory(snapshot), nil
}

func (c *Canvas) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (c *Canvas) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.events == nil {
		return
	}

	_ = c.events.Publish(ctx, key, event)
}
