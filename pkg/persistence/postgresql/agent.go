package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowplane/flowplane/pkg/models"
)

// AgentRepository handles agent-related database operations.
type AgentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(db *sql.DB, logger *slog.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger}
}

// List returns every agent, sorted by name.
func (r *AgentRepository) List(ctx context.Context) ([]*models.Agent, error) {
	query := `
		SELECT id, name, description, agent_type, created_at, updated_at
		FROM agents
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	agents := make([]*models.Agent, 0)

	for rows.Next() {
		var agent models.Agent

		err = rows.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.AgentType, &agent.CreatedAt, &agent.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}

		agents = append(agents, &agent)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// GetByID retrieves an agent by its ID; nil, nil when it does not exist.
func (r *AgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	query := `
		SELECT id, name, description, agent_type, created_at, updated_at
		FROM agents
		WHERE id = $1
	`

	var agent models.Agent

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&agent.ID, &agent.Name, &agent.Description, &agent.AgentType, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	return &agent, nil
}

// Save upserts an agent.
func (r *AgentRepository) Save(ctx context.Context, agent *models.Agent) error {
	now := time.Now().UTC()

	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	query := `
		INSERT INTO agents (id, name, description, agent_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			agent_type = EXCLUDED.agent_type,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		agent.ID, agent.Name, agent.Description, agent.AgentType, agent.CreatedAt, agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", agent.ID, err)
	}

	return nil
}

// Delete removes an agent by its ID. Missing agents are not an error.
func (r *AgentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM agents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}

	return nil
}
