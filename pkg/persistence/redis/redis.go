// Package redis provides Redis persistence for workflows and agents. Each
// record is one JSON value under a namespaced key, with a set per record
// type indexing the known ids.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/flowplane/flowplane/pkg/persistence"
)

const (
	workflowKeyPrefix = "flowplane:workflows:"
	workflowIndexKey  = "flowplane:workflows"
	agentKeyPrefix    = "flowplane:agents:"
	agentIndexKey     = "flowplane:agents"
)

// Persistence implements the persistence layer on Redis.
type Persistence struct {
	client       goredis.UniversalClient
	workflowRepo *WorkflowRepository
	agentRepo    *AgentRepository
}

// NewPersistence parses the connection URL (redis://...) and connects.
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client:       client,
		workflowRepo: NewWorkflowRepository(client),
		agentRepo:    NewAgentRepository(client),
	}, nil
}

// Close closes the client connection.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck verifies the connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// WorkflowRepository returns the workflow repository implementation.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// AgentRepository returns the agent repository implementation.
func (p *Persistence) AgentRepository() persistence.AgentRepository {
	return p.agentRepo
}
