package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/flowplane/flowplane/pkg/eventbus"
	"github.com/flowplane/flowplane/pkg/events"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/validation"
	"github.com/google/uuid"
)

// Workflow owns workflow definition CRUD: validation before every write,
// lifecycle events after.
type Workflow struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
}

// NewWorkflow creates a new workflow service. A nil publisher disables
// event publication.
func NewWorkflow(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Workflow {
	return &Workflow{
		persistence: persistence,
		events:      publisher,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`

	NameContains string

	SortBy    string `validate:"omitempty,oneof=created_at updated_at name"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.WorkflowDefinition `json:"workflows"`
	TotalCount  int64                        `json:"total_count"`
	HasNextPage bool                         `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := w.validateListWorkflowsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListWorkflowsOptions{
		Limit:        req.Limit,
		Offset:       req.Offset,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
		NameContains: req.NameContains,
	}

	result, err := w.persistence.WorkflowRepository().List(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListWorkflowsRequest validates and sets defaults for the request.
func (w *Workflow) validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}
	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow. A missing identifier is generated; an existing
// one is a conflict. The definition must pass validation before it is
// stored.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	} else {
		existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workflow.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing workflow: %w", err)
		}

		if existing != nil {
			return nil, ErrWorkflowExists
		}
	}

	if err := w.validateDefinition("Create", workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent:    w.baseEvent(events.WorkflowCreatedEvent),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
	})

	return workflow, nil
}

// Update replaces an existing workflow definition. The stored creation
// timestamp survives the update.
func (w *Workflow) Update(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	if err := w.validateDefinition("Update", workflow); err != nil {
		return nil, err
	}

	workflow.CreatedAt = existing.CreatedAt

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.publish(ctx, workflow.ID, events.WorkflowUpdated{
		BaseEvent:  w.baseEvent(events.WorkflowUpdatedEvent),
		WorkflowID: workflow.ID,
		StepCount:  len(workflow.Steps),
	})

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if _, err := w.FetchByID(ctx, id); err != nil {
		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent:  w.baseEvent(events.WorkflowDeletedEvent),
		WorkflowID: id,
	})

	return nil
}

// validateDefinition runs semantic validation and wraps failures as
// validation errors. Warnings (dangling targets and the like) do not block
// a save; the canvas surfaces them.
func (w *Workflow) validateDefinition(op string, workflow *models.WorkflowDefinition) error {
	result := validation.Definition(workflow)
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors))
	for _, issue := range result.Errors {
		details = append(details, issue.Detail)
	}

	return NewValidationError(op, "INVALID_WORKFLOW", strings.Join(details, "; "), ErrInvalidWorkflow)
}

func (w *Workflow) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// publish sends a lifecycle event; publication failures never fail the
// operation that triggered them.
func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.events == nil {
		return
	}

	_ = w.events.Publish(ctx, key, event)
}
