package models

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// TriggerType identifies how a workflow run is started.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeWebhook  TriggerType = "webhook"
	TriggerTypeSchedule TriggerType = "schedule"
)

var (
	ErrWebhookConfigRequired = errors.New("webhook trigger requires webhook_config")
	ErrScheduleRequired      = errors.New("schedule trigger requires a cron expression")
)

// Trigger is the workflow's external entry configuration. It is not a step:
// the canvas renders it as the synthetic boundary node at the top of the
// graph.
type Trigger struct {
	Type          TriggerType    `json:"type" validate:"required,oneof=manual webhook schedule"`
	WebhookConfig *WebhookConfig `json:"webhook_config,omitempty"`

	// Schedule is a standard 5-field cron expression (minute hour day month
	// weekday), only meaningful for schedule triggers.
	Schedule string `json:"schedule,omitempty"`
}

// WebhookConfig carries the inbound webhook materials for webhook triggers.
type WebhookConfig struct {
	Path   string `json:"path,omitempty"`
	Method string `json:"method,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// Validate checks type-specific requirements, including the cron expression
// for schedule triggers.
func (t *Trigger) Validate() error {
	switch t.Type {
	case TriggerTypeManual:
		return nil
	case TriggerTypeWebhook:
		if t.WebhookConfig == nil {
			return ErrWebhookConfigRequired
		}

		return nil
	case TriggerTypeSchedule:
		if t.Schedule == "" {
			return ErrScheduleRequired
		}

		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(t.Schedule); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", t.Schedule, err)
		}

		return nil
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
}
