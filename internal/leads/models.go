package leads

import "time"

// Lead represents a contactable person owned by one user.
//
// Tenancy invariant: UserID is required on every row.
//
// The disposition router mutates status, do_not_call and next_callback_at as
// a side effect of call outcomes; it never creates or deletes leads. Lead
// creation belongs to the surrounding CRM CRUD surface.

type Lead struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`
	Phone     string `json:"phone" db:"phone"`
	Email     string `json:"email,omitempty" db:"email"`

	Status    Status `json:"status" db:"status"`
	DoNotCall bool   `json:"do_not_call" db:"do_not_call"`

	NextCallbackAt *time.Time `json:"next_callback_at,omitempty" db:"next_callback_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Status is deliberately open-ended: "remove everywhere" dispositions write
// the normalized disposition name as the status (e.g. wrong_number).
type Status string

const (
	StatusNew           Status = "new"
	StatusContacted     Status = "contacted"
	StatusCallback      Status = "callback"
	StatusDNC           Status = "dnc"
	StatusNotInterested Status = "not_interested"
)

// Snapshot captures the router-relevant state of a lead at one instant,
// used for before/after metrics.
type Snapshot struct {
	LeadID    string
	Status    Status
	DoNotCall bool
	Phone     string

	// PipelineBoard is the name of the board the lead currently sits on,
	// empty when the lead has no pipeline position.
	PipelineBoard string
}
