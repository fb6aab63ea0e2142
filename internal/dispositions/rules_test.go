package dispositions

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestActionTypeValid(t *testing.T) {
	valid := []ActionType{
		ActionRemoveAllCampaigns, ActionRemoveFromCampaign, ActionMoveToStage,
		ActionAddToDNC, ActionStartWorkflow, ActionSendSMS,
		ActionScheduleCallback, ActionBookAppointment,
	}
	for _, a := range valid {
		if !a.Valid() {
			t.Fatalf("%q.Valid() = false", a)
		}
	}
	if ActionType("delete_lead").Valid() {
		t.Fatal("unknown action reported valid")
	}
}

func TestDecodeConfig(t *testing.T) {
	rule := AutoActionRule{ID: "r-1", Config: json.RawMessage(`{"delay_hours": 48}`)}
	cfg, err := decodeConfig[ScheduleCallbackConfig](rule)
	if err != nil {
		t.Fatalf("decodeConfig: %v", err)
	}
	if cfg.DelayHours != 48 {
		t.Fatalf("DelayHours = %d, want 48", cfg.DelayHours)
	}
}

func TestDecodeConfigRejectsInvalid(t *testing.T) {
	cases := []AutoActionRule{
		{ID: "r-empty", Config: json.RawMessage(`{}`)},
		{ID: "r-zero", Config: json.RawMessage(`{"delay_hours": 0}`)},
		{ID: "r-garbage", Config: json.RawMessage(`not json`)},
		{ID: "r-missing"},
	}
	for _, rule := range cases {
		if _, err := decodeConfig[ScheduleCallbackConfig](rule); !errors.Is(err, ErrBadActionConfig) {
			t.Fatalf("rule %s: err = %v, want ErrBadActionConfig", rule.ID, err)
		}
	}
}

func TestDecodeConfigValidatesEmail(t *testing.T) {
	rule := AutoActionRule{
		ID:     "r-appt",
		Config: json.RawMessage(`{"date":"2025-06-03","time":"10:00","attendee_email":"not-an-email"}`),
	}
	if _, err := decodeConfig[BookAppointmentConfig](rule); !errors.Is(err, ErrBadActionConfig) {
		t.Fatalf("err = %v, want ErrBadActionConfig", err)
	}
}
