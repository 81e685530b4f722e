package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/flowplane/flowplane/pkg/models"
)

// AgentRepository handles agent-related file operations.
type AgentRepository struct {
	root string
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(root string) *AgentRepository {
	return &AgentRepository{root: root}
}

// List returns every stored agent, sorted by name for stable display.
func (ar *AgentRepository) List(ctx context.Context) ([]*models.Agent, error) {
	root := os.DirFS(ar.root + "/agents")

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list agent files: %w", err)
	}

	agents := make([]*models.Agent, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		agentID := file[:len(file)-5] // Remove .json extension

		agent, err := ar.GetByID(ctx, agentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load agent %s: %w", agentID, err)
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

// GetByID retrieves an agent by its ID from the file system.
func (ar *AgentRepository) GetByID(_ context.Context, agentID string) (*models.Agent, error) {
	filePath := filepath.Clean(path.Join(ar.root, "agents", agentID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch agent %s: %w", agentID, err)
	}

	var agent models.Agent

	err = json.Unmarshal(body, &agent)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent %s: %w", agentID, err)
	}

	return &agent, nil
}

// Save saves an agent to the file system.
func (ar *AgentRepository) Save(_ context.Context, agent *models.Agent) error {
	err := os.MkdirAll(ar.root+"/agents", 0750)
	if err != nil {
		return fmt.Errorf("failed to create agents directory: %w", err)
	}

	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	data, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal agent %s: %w", agent.ID, err)
	}

	filePath := path.Join(ar.root+"/agents", agent.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// Delete removes an agent by its ID. Missing agents are not an error.
func (ar *AgentRepository) Delete(_ context.Context, id string) error {
	filePath := path.Join(ar.root+"/agents", id+".json")

	err := os.Remove(filePath)

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}

	return nil
}
