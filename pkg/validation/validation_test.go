package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/models"
)

func hasCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}

	return false
}

func validDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:        "wf-1",
		Name:      "Valid Flow",
		EntryStep: "s1",
		Trigger:   &models.Trigger{Type: models.TriggerTypeSchedule, Schedule: "*/5 * * * *"},
		Steps: []models.WorkflowStep{
			{ID: "s1", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-1"}},
			{
				ID:   "s2",
				Type: models.StepKindConditional,
				Conditional: &models.ConditionalStep{
					ClassifierID: "classifier-1",
					Branches:     map[string]string{"yes": "s3"},
					Default:      "s3",
				},
			},
			{
				ID:   "s3",
				Type: models.StepKindLoop,
				Loop: &models.LoopStep{
					Mode:  models.LoopModeCount,
					Count: 2,
					Body: []models.WorkflowStep{
						{ID: "inner", Type: models.StepKindAgent, Agent: &models.AgentStep{AgentID: "agent-1"}},
					},
				},
			},
		},
	}
}

func TestDefinition_Valid(t *testing.T) {
	t.Parallel()

	result := Definition(validDefinition())

	assert.True(t, result.Valid())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestDefinition_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(def *models.WorkflowDefinition)
		wantCode string
	}{
		{
			name:     "missing workflow id",
			mutate:   func(def *models.WorkflowDefinition) { def.ID = "" },
			wantCode: CodeMissingID,
		},
		{
			name: "duplicate step id",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps = append(def.Steps, def.Steps[0])
			},
			wantCode: CodeDuplicateStepID,
		},
		{
			name: "step without id",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps = append(def.Steps, models.WorkflowStep{Type: models.StepKindAgent})
			},
			wantCode: CodeMissingStepID,
		},
		{
			name: "config not matching kind",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps[0].Conditional = &models.ConditionalStep{ClassifierID: "c"}
			},
			wantCode: CodeInvalidStep,
		},
		{
			name: "count loop without count",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps[2].Loop.Count = 0
			},
			wantCode: CodeInvalidLoop,
		},
		{
			name: "unknown loop mode",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps[2].Loop.Mode = "forever"
			},
			wantCode: CodeInvalidLoop,
		},
		{
			name: "loop body step invalid",
			mutate: func(def *models.WorkflowDefinition) {
				def.Steps[2].Loop.Body[0].Agent = nil
				def.Steps[2].Loop.Body[0].Parallel = &models.ParallelStep{}
			},
			wantCode: CodeInvalidStep,
		},
		{
			name: "webhook trigger without config",
			mutate: func(def *models.WorkflowDefinition) {
				def.Trigger = &models.Trigger{Type: models.TriggerTypeWebhook}
			},
			wantCode: CodeInvalidTrigger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := validDefinition()
			tt.mutate(def)

			result := Definition(def)

			assert.False(t, result.Valid())
			assert.True(t, hasCode(result.Errors, tt.wantCode),
				"expected %s in %+v", tt.wantCode, result.Errors)
		})
	}
}

func TestDefinition_DanglingTargetIsWarning(t *testing.T) {
	t.Parallel()

	def := validDefinition()
	def.Steps[1].Conditional.Branches["maybe"] = "ghost"

	result := Definition(def)

	assert.True(t, result.Valid(), "dangling targets do not block saving")
	assert.True(t, hasCode(result.Warnings, CodeDanglingTarget))
}

func TestDefinition_UnknownEntryStepIsWarning(t *testing.T) {
	t.Parallel()

	def := validDefinition()
	def.EntryStep = "ghost"

	result := Definition(def)

	assert.True(t, result.Valid())
	assert.True(t, hasCode(result.Warnings, CodeUnknownEntryStep))
}

func TestDefinition_Nil(t *testing.T) {
	t.Parallel()

	result := Definition(nil)

	assert.False(t, result.Valid())
}

func TestResult_Merge(t *testing.T) {
	t.Parallel()

	var a, b Result

	a.AddError(CodeMissingID, "", "no id")
	b.AddWarning(CodeDanglingTarget, "s1", "branch points nowhere")

	a.Merge(b)

	assert.Len(t, a.Errors, 1)
	assert.Len(t, a.Warnings, 1)
	assert.False(t, a.Valid())
}

func TestDocument(t *testing.T) {
	t.Parallel()

	valid := []byte(`{
		"id": "wf-1",
		"name": "Valid",
		"steps": [
			{"id": "s1", "type": "agent", "agent": {"agent_id": "a-1"}}
		]
	}`)

	result, err := Document(valid)
	require.NoError(t, err)
	assert.True(t, result.Valid())
}

func TestDocument_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing id", raw: `{"steps": []}`},
		{name: "empty id", raw: `{"id": ""}`},
		{name: "bad step kind", raw: `{"id": "w", "steps": [{"id": "s1", "type": "teleport"}]}`},
		{name: "steps not an array", raw: `{"id": "w", "steps": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Document([]byte(tt.raw))
			require.NoError(t, err)

			assert.False(t, result.Valid())
			assert.True(t, hasCode(result.Errors, CodeSchemaViolation))
		})
	}
}

func TestDocument_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Document([]byte(`{"id": `))
	assert.Error(t, err)
}
