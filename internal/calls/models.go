package calls

import "time"

// Call represents one dial attempt logged by the AI dialer.
//
// Tenancy invariant: UserID is required on every row.
//
// The disposition router only reads calls (ended_at, campaign_id) to compute
// time-to-disposition; call rows are written by the dialing pipeline.

type Call struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status  Status `json:"status" db:"status"`
	Outcome string `json:"outcome,omitempty" db:"outcome"`

	DurationSeconds int `json:"duration" db:"duration"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoAnswer   Status = "no_answer"
	StatusBusy       Status = "busy"
	StatusCanceled   Status = "canceled"
)
