package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
)

// WorkflowRepository handles workflow-related Redis operations. Listing
// loads the full index and sorts/pages in memory, like the file backend.
type WorkflowRepository struct {
	client goredis.UniversalClient
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(client goredis.UniversalClient) *WorkflowRepository {
	return &WorkflowRepository{client: client}
}

// List returns paginated and filtered workflows.
func (wr *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{"created_at": true, "updated_at": true, "name": true}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	ids, err := wr.client.SMembers(ctx, workflowIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		if workflow == nil {
			continue
		}

		if opts.NameContains != "" &&
			!strings.Contains(strings.ToLower(workflow.Name), strings.ToLower(opts.NameContains)) {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		var less bool

		switch opts.SortBy {
		case "updated_at":
			less = workflows[i].UpdatedAt.Before(workflows[j].UpdatedAt)
		case "name":
			less = workflows[i].Name < workflows[j].Name
		default:
			less = workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
		}

		if opts.SortOrder == "desc" {
			return !less
		}

		return less
	})

	totalCount := int64(len(workflows))

	startIdx := opts.Offset
	if startIdx > len(workflows) {
		startIdx = len(workflows)
	}

	endIdx := startIdx + opts.Limit
	if endIdx > len(workflows) {
		endIdx = len(workflows)
	}

	return &persistence.WorkflowListResult{
		Workflows:   workflows[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(workflows),
	}, nil
}

// GetByID retrieves a workflow by its ID; nil, nil when it does not exist.
func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	body, err := wr.client.Get(ctx, workflowKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.WorkflowDefinition

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// Save upserts a workflow and registers it in the index set.
func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDefinition) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = wr.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, workflowKeyPrefix+workflow.ID, data, 0)
		pipe.SAdd(ctx, workflowIndexKey, workflow.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID. Missing workflows are not an error.
func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := wr.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, workflowKeyPrefix+id)
		pipe.SRem(ctx, workflowIndexKey, id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
