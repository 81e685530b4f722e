package models_test

import (
	"testing"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTrigger_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trigger models.Trigger
		wantErr bool
	}{
		{
			name:    "manual",
			trigger: models.Trigger{Type: models.TriggerTypeManual},
		},
		{
			name: "webhook with config",
			trigger: models.Trigger{
				Type:          models.TriggerTypeWebhook,
				WebhookConfig: &models.WebhookConfig{Path: "/hooks/intake", Method: "POST"},
			},
		},
		{
			name:    "webhook without config",
			trigger: models.Trigger{Type: models.TriggerTypeWebhook},
			wantErr: true,
		},
		{
			name:    "schedule with valid cron",
			trigger: models.Trigger{Type: models.TriggerTypeSchedule, Schedule: "*/5 * * * *"},
		},
		{
			name:    "schedule with six fields",
			trigger: models.Trigger{Type: models.TriggerTypeSchedule, Schedule: "0 */5 * * * *"},
			wantErr: true,
		},
		{
			name:    "schedule without expression",
			trigger: models.Trigger{Type: models.TriggerTypeSchedule},
			wantErr: true,
		},
		{
			name:    "unknown type",
			trigger: models.Trigger{Type: models.TriggerType("poll")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.trigger.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
