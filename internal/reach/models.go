package reach

import "time"

// Event is an immutable, append-only reachability log record.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required for tenancy isolation.
// - Logging is best-effort; do not block the disposition cascade on it.
//
// Storage recommendation (Postgres):
// - Table reachability_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// Type indicates the business category of the record.
	Type EventType `json:"event_type" db:"event_type"`

	LeadID        string `json:"lead_id,omitempty" db:"lead_id"`
	CallID        string `json:"call_id,omitempty" db:"call_id"`
	CampaignID    string `json:"campaign_id,omitempty" db:"campaign_id"`
	DispositionID string `json:"disposition_id,omitempty" db:"disposition_id"`

	// SetBy records who triggered the event: ai, manual, automation.
	SetBy string `json:"set_by,omitempty" db:"set_by"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDispositionSet EventType = "disposition_set"
	EventTypeDNCAdded       EventType = "dnc_added"
)
