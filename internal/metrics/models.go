package metrics

import "time"

// Record is one append-only audit row per disposition-router invocation,
// capturing the lead's before/after state and everything the cascade did.
//
// Invariants:
// - Exactly one row per successful invocation.
// - Rows are never updated or deleted.
// - Writing a Record is best-effort: a failure is logged, never returned to
//   the caller (observability must not fail the request).

type Record struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	DispositionID   string `json:"disposition_id,omitempty" db:"disposition_id"`
	DispositionName string `json:"disposition_name" db:"disposition_name"`

	CallID     string `json:"call_id,omitempty" db:"call_id"`
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`
	WorkflowID string `json:"workflow_id,omitempty" db:"workflow_id"`

	StatusBefore string `json:"status_before" db:"status_before"`
	StatusAfter  string `json:"status_after" db:"status_after"`

	PipelineStageBefore string `json:"pipeline_stage_before,omitempty" db:"pipeline_stage_before"`
	PipelineStageAfter  string `json:"pipeline_stage_after,omitempty" db:"pipeline_stage_after"`

	// TimeToDispositionSeconds is now - call.ended_at; negative values are
	// clamped to zero. Zero when no call context was supplied.
	TimeToDispositionSeconds int64 `json:"time_to_disposition_seconds" db:"time_to_disposition_seconds"`

	// ActionsTriggered matches the actions array returned to the caller.
	ActionsTriggered []string `json:"actions_triggered" db:"actions_triggered"`

	CallOutcome      string `json:"call_outcome,omitempty" db:"call_outcome"`
	HadTranscript    bool   `json:"had_transcript" db:"had_transcript"`
	AutoActionsCount int    `json:"auto_actions_count" db:"auto_actions_count"`

	SetBy        string   `json:"set_by,omitempty" db:"set_by"`
	AIConfidence *float64 `json:"ai_confidence,omitempty" db:"ai_confidence"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
