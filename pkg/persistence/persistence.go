// Package persistence provides the data storage abstraction for workflows
// and agents.
package persistence

import (
	"context"

	"github.com/flowplane/flowplane/pkg/models"
)

// ListWorkflowsOptions filters and pages workflow listings.
type ListWorkflowsOptions struct {
	Limit        int
	Offset       int
	SortBy       string // created_at, updated_at, name
	SortOrder    string // asc, desc
	NameContains string // case-insensitive substring match on the name
}

// WorkflowListResult carries one page of workflows plus paging metadata.
type WorkflowListResult struct {
	Workflows   []*models.WorkflowDefinition
	TotalCount  int64
	HasNextPage bool
}

// WorkflowRepository stores workflow definitions. GetByID returns nil, nil
// when the workflow does not exist; Save upserts; Delete tolerates missing
// records.
type WorkflowRepository interface {
	List(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	Save(ctx context.Context, workflow *models.WorkflowDefinition) error
	Delete(ctx context.Context, id string) error
}

// AgentRepository stores the externally-managed agents steps reference.
// Same conventions as WorkflowRepository.
type AgentRepository interface {
	List(ctx context.Context) ([]*models.Agent, error)
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	Save(ctx context.Context, agent *models.Agent) error
	Delete(ctx context.Context, id string) error
}

// Persistence is the top-level handle a backend implements.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	AgentRepository() AgentRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
