package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflows", "agents", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("flowplane_test"),
			postgres.WithUsername("flowplane"),
			postgres.WithPassword("flowplane"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func integrationWorkflow(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          id,
		Name:        "Escalation Pipeline",
		Description: "Routes tickets and escalates failures",
		Steps: []models.WorkflowStep{
			{
				ID:      "triage",
				Type:    models.StepKindConditional,
				Name:    "Triage",
				Timeout: 30,
				OnError: "fail",
				Conditional: &models.ConditionalStep{
					ClassifierID: "classifier-1",
					Branches:     map[string]string{"billing": "refund", "technical": "investigate"},
					Default:      "investigate",
				},
			},
			{
				ID:      "refund",
				Type:    models.StepKindAgent,
				Name:    "Refund",
				Retries: 2,
				Agent:   &models.AgentStep{AgentID: "agent-refund", Input: "{{ticket}}"},
			},
			{
				ID:   "investigate",
				Type: models.StepKindAgent,
				Agent: &models.AgentStep{
					SuggestedAgent: &models.SuggestedAgent{Name: "Debugger", Goal: "Investigate the issue"},
				},
			},
		},
		EntryStep: "triage",
		Context: map[string]any{
			"canvas_layout": map[string]any{
				"positions": map[string]any{"triage": map[string]any{"x": 80.0, "y": 120.0}},
			},
			"unrelated": "kept",
		},
		Trigger: &models.Trigger{
			Type:          models.TriggerTypeWebhook,
			WebhookConfig: &models.WebhookConfig{Path: "/hooks/tickets", Method: "POST"},
		},
	}
}

func TestPostgresWorkflowRepository_RoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	repo := p.WorkflowRepository()
	workflow := integrationWorkflow("wf-int-1")

	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, "wf-int-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, workflow.EntryStep, loaded.EntryStep)
	require.Len(t, loaded.Steps, 3)

	triage := loaded.StepByID("triage")
	require.NotNil(t, triage)
	require.NotNil(t, triage.Conditional)
	assert.Equal(t, "refund", triage.Conditional.Branches["billing"])
	assert.Equal(t, "investigate", triage.Conditional.Default)
	assert.Equal(t, 30, triage.Timeout)

	investigate := loaded.StepByID("investigate")
	require.NotNil(t, investigate)
	require.NotNil(t, investigate.Agent.SuggestedAgent)
	assert.Equal(t, "Debugger", investigate.Agent.SuggestedAgent.Name)

	require.NotNil(t, loaded.Trigger)
	assert.Equal(t, models.TriggerTypeWebhook, loaded.Trigger.Type)
	assert.Equal(t, "/hooks/tickets", loaded.Trigger.WebhookConfig.Path)

	layout, ok := models.CanvasLayoutFromContext(loaded.Context)
	require.True(t, ok)
	assert.Equal(t, models.Position{X: 80, Y: 120}, layout.Positions["triage"])
	assert.Equal(t, "kept", loaded.Context["unrelated"])
}

func TestPostgresWorkflowRepository_GetByID_NotFound(t *testing.T) {
	p, ctx := setupTestDB(t)

	loaded, err := p.WorkflowRepository().GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestPostgresWorkflowRepository_Upsert(t *testing.T) {
	p, ctx := setupTestDB(t)

	repo := p.WorkflowRepository()
	workflow := integrationWorkflow("wf-int-2")

	require.NoError(t, repo.Save(ctx, workflow))

	workflow.Name = "Renamed Pipeline"
	workflow.Steps = workflow.Steps[:2]
	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, "wf-int-2")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "Renamed Pipeline", loaded.Name)
	assert.Len(t, loaded.Steps, 2)
}

func TestPostgresWorkflowRepository_ListAndPaginate(t *testing.T) {
	p, ctx := setupTestDB(t)

	repo := p.WorkflowRepository()

	for _, id := range []string{"wf-a", "wf-b", "wf-c"} {
		wf := integrationWorkflow(id)
		wf.Name = "Pipeline " + id

		require.NoError(t, repo.Save(ctx, wf))
	}

	page, err := repo.List(ctx, persistence.ListWorkflowsOptions{
		Limit:     2,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.TotalCount)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Workflows, 2)
	assert.Equal(t, "Pipeline wf-a", page.Workflows[0].Name)

	filtered, err := repo.List(ctx, persistence.ListWorkflowsOptions{NameContains: "wf-b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.TotalCount)

	_, err = repo.List(ctx, persistence.ListWorkflowsOptions{SortBy: "steps"})
	assert.ErrorIs(t, err, persistence.ErrInvalidSortField)
}

func TestPostgresWorkflowRepository_Delete(t *testing.T) {
	p, ctx := setupTestDB(t)

	repo := p.WorkflowRepository()
	require.NoError(t, repo.Save(ctx, integrationWorkflow("wf-del")))
	require.NoError(t, repo.Delete(ctx, "wf-del"))

	loaded, err := repo.GetByID(ctx, "wf-del")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, repo.Delete(ctx, "wf-del"))
}

func TestPostgresAgentRepository_CRUD(t *testing.T) {
	p, ctx := setupTestDB(t)

	repo := p.AgentRepository()

	require.NoError(t, repo.Save(ctx, &models.Agent{ID: "agent-2", Name: "Zeta"}))
	require.NoError(t, repo.Save(ctx, &models.Agent{
		ID:          "agent-1",
		Name:        "Router",
		Description: "Classifies tickets",
		AgentType:   models.AgentTypeClassifier,
	}))

	agents, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "Router", agents[0].Name)
	assert.True(t, agents[0].IsClassifier())

	loaded, err := repo.GetByID(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Classifies tickets", loaded.Description)

	missing, err := repo.GetByID(ctx, "agent-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, "agent-1"))

	agents, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}

func TestPostgresPersistence_HealthCheck(t *testing.T) {
	p, ctx := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}
