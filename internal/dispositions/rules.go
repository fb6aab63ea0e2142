package dispositions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ActionType is the fixed vocabulary of user-configurable auto-actions.
type ActionType string

const (
	ActionRemoveAllCampaigns ActionType = "remove_all_campaigns"
	ActionRemoveFromCampaign ActionType = "remove_from_campaign"
	ActionMoveToStage        ActionType = "move_to_stage"
	ActionAddToDNC           ActionType = "add_to_dnc"
	ActionStartWorkflow      ActionType = "start_workflow"
	ActionSendSMS            ActionType = "send_sms"
	ActionScheduleCallback   ActionType = "schedule_callback"
	ActionBookAppointment    ActionType = "book_appointment"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionRemoveAllCampaigns, ActionRemoveFromCampaign, ActionMoveToStage,
		ActionAddToDNC, ActionStartWorkflow, ActionSendSMS,
		ActionScheduleCallback, ActionBookAppointment:
		return true
	default:
		return false
	}
}

// AutoActionRule maps a disposition to one automated side effect.
//
// Matching: either DispositionID equals the incoming disposition id, or
// DispositionPattern contains the incoming name case-insensitively
// (ILIKE '%' || name || '%'). Rules execute in ascending Priority order.
type AutoActionRule struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	DispositionID      string `json:"disposition_id,omitempty" db:"disposition_id"`
	DispositionPattern string `json:"disposition_name,omitempty" db:"disposition_name"`

	Action ActionType      `json:"action_type" db:"action_type"`
	Config json.RawMessage `json:"action_config,omitempty" db:"action_config"`

	Priority int  `json:"priority" db:"priority"`
	Active   bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Per-action config payloads. Decoded from AutoActionRule.Config and
// validated before execution; a bad config fails the whole cascade (the
// transaction rolls back).

type RemoveFromCampaignConfig struct {
	CampaignID string `json:"campaign_id" validate:"required"`
}

type MoveToStageConfig struct {
	TargetStageID string `json:"target_stage_id" validate:"required"`
}

type StartWorkflowConfig struct {
	WorkflowID string `json:"workflow_id" validate:"required"`
	CampaignID string `json:"campaign_id"`
}

type SendSMSConfig struct {
	Body string `json:"body" validate:"required"`
}

type ScheduleCallbackConfig struct {
	DelayHours int `json:"delay_hours" validate:"required,min=1"`
}

type BookAppointmentConfig struct {
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0"`
	Title           string `json:"title"`
	AttendeeEmail   string `json:"attendee_email" validate:"omitempty,email"`
}

var validate = validator.New()

var ErrBadActionConfig = errors.New("dispositions: invalid action config")

func decodeConfig[T any](rule AutoActionRule) (T, error) {
	var cfg T
	if len(rule.Config) > 0 {
		if err := json.Unmarshal(rule.Config, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: rule %s: %v", ErrBadActionConfig, rule.ID, err)
		}
	}
	if err := validate.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: rule %s: %v", ErrBadActionConfig, rule.ID, err)
	}
	return cfg, nil
}
