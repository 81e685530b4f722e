package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/flowplane/flowplane/pkg/models"
)

// AgentRepository handles agent-related Redis operations.
type AgentRepository struct {
	client goredis.UniversalClient
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(client goredis.UniversalClient) *AgentRepository {
	return &AgentRepository{client: client}
}

// List returns every stored agent, sorted by name.
func (ar *AgentRepository) List(ctx context.Context) ([]*models.Agent, error) {
	ids, err := ar.client.SMembers(ctx, agentIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list agent ids: %w", err)
	}

	agents := make([]*models.Agent, 0, len(ids))

	for _, id := range ids {
		agent, err := ar.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load agent %s: %w", id, err)
		}

		if agent != nil {
			agents = append(agents, agent)
		}
	}

	sort.Slice(agents, func(i, j int) bool {
		if agents[i].Name == agents[j].Name {
			return agents[i].ID < agents[j].ID
		}

		return agents[i].Name < agents[j].Name
	})

	return agents, nil
}

// GetByID retrieves an agent by its ID; nil, nil when it does not exist.
func (ar *AgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	body, err := ar.client.Get(ctx, agentKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch agent %s: %w", id, err)
	}

	var agent models.Agent

	err = json.Unmarshal(body, &agent)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent %s: %w", id, err)
	}

	return &agent, nil
}

// Save upserts an agent and registers it in the index set.
func (ar *AgentRepository) Save(ctx context.Context, agent *models.Agent) error {
	now := time.Now().UTC()

	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	data, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent %s: %w", agent.ID, err)
	}

	_, err = ar.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, agentKeyPrefix+agent.ID, data, 0)
		pipe.SAdd(ctx, agentIndexKey, agent.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", agent.ID, err)
	}

	return nil
}

// Delete removes an agent by its ID. Missing agents are not an error.
func (ar *AgentRepository) Delete(ctx context.Context, id string) error {
	_, err := ar.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, agentKeyPrefix+id)
		pipe.SRem(ctx, agentIndexKey, id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}

	return nil
}
