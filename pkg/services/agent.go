package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flowplane/flowplane/pkg/agents"
	"github.com/flowplane/flowplane/pkg/eventbus"
	"github.com/flowplane/flowplane/pkg/events"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/google/uuid"
)

// Agent owns the registry of externally-managed agents the canvas resolves
// step references against.
type Agent struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
}

// NewAgent creates a new agent service. A nil publisher disables event
// publication.
func NewAgent(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Agent {
	return &Agent{
		persistence: persistence,
		events:      publisher,
	}
}

// List returns every registered agent, sorted by name.
func (a *Agent) List(ctx context.Context) ([]*models.Agent, error) {
	list, err := a.persistence.AgentRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return list, nil
}

// FetchByID retrieves an agent by its ID.
func (a *Agent) FetchByID(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := a.persistence.AgentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if agent == nil {
		return nil, ErrAgentNotFound
	}

	return agent, nil
}

// Register adds a new agent. A missing identifier is generated; an existing
// one is a conflict.
func (a *Agent) Register(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	if agent == nil {
		return nil, ErrAgentNil
	}

	if agent.Name == "" {
		return nil, ErrAgentNameRequired
	}

	if agent.ID == "" {
		agent.ID = uuid.New().String()
	} else {
		existing, err := a.persistence.AgentRepository().GetByID(ctx, agent.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing agent: %w", err)
		}

		if existing != nil {
			return nil, ErrAgentExists
		}
	}

	err := a.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to save agent: %w", err)
	}

	a.publish(ctx, agent.ID, events.AgentRegistered{
		BaseEvent: a.baseEvent(events.AgentRegisteredEvent),
		AgentID:   agent.ID,
		AgentName: agent.Name,
		AgentType: agent.AgentType,
	})

	return agent, nil
}

// Delete removes an agent from the registry. Steps referencing it surface
// as error readiness on their next compile; nothing cascades.
func (a *Agent) Delete(ctx context.Context, id string) error {
	if _, err := a.FetchByID(ctx, id); err != nil {
		return err
	}

	err := a.persistence.AgentRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	a.publish(ctx, id, events.AgentRemoved{
		BaseEvent: a.baseEvent(events.AgentRemovedEvent),
		AgentID:   id,
	})

	return nil
}

// Directory snapshots the current agent set for reference resolution.
func (a *Agent) Directory(ctx context.Context) (*agents.Directory, error) {
	list, err := a.List(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make([]models.Agent, 0, len(list))
	for _, agent := range list {
		snapshot = append(snapshot, *agent)
	}

	return agents.NewDirectory(snapshot), nil
}

func (a *Agent) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (a *Agent) publish(ctx context.Context, key string, event eventbus.Event) {
	if a.events == nil {
		return
	}

	_ = a.events.Publish(ctx, key, event)
}
