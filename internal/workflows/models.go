package workflows

import "time"

// Progress is a lead's enrollment in a multi-step nurture sequence.
//
// The disposition router marks enrollments removed instead of deleting them,
// preserving history. Only status transitions active -> removed happen here;
// creation and advancement belong to the workflow executor.

type Progress struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	WorkflowID string `json:"workflow_id" db:"workflow_id"`
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`

	Status ProgressStatus `json:"status" db:"status"`

	CurrentStep int `json:"current_step" db:"current_step"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ProgressStatus string

const (
	ProgressActive    ProgressStatus = "active"
	ProgressCompleted ProgressStatus = "completed"
	ProgressRemoved   ProgressStatus = "removed"
)

// QueueEntry is a lead's slot in a campaign dialing queue.

type QueueEntry struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	CampaignID string `json:"campaign_id" db:"campaign_id"`

	Status QueueStatus `json:"status" db:"status"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueueScheduled QueueStatus = "scheduled"
	QueueDialing   QueueStatus = "dialing"
	QueueDone      QueueStatus = "done"
	QueueRemoved   QueueStatus = "removed"
)
