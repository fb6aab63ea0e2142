package dispositions

import (
	"context"
	"errors"
	"time"

	"dialer-crm/internal/calls"
	"dialer-crm/internal/dnc"
	"dialer-crm/internal/leads"
	"dialer-crm/internal/pipeline"
	"dialer-crm/internal/reach"
	"dialer-crm/internal/workflows"
)

var ErrLeadNotFound = errors.New("dispositions: lead not found")

// Store is the persistence boundary of the disposition cascade.
//
// Transact runs the whole cascade atomically: either every mutation in fn is
// applied or none is. Snapshot is a plain read used for post-commit metrics.
type Store interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Snapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error)
}

// Tx exposes the cascade's data operations inside one transaction. All
// methods are user-scoped; implementations must filter on user_id.
type Tx interface {
	// GetLeadSnapshot returns status, do_not_call, phone and current board
	// name. ErrLeadNotFound when the lead does not exist for this user.
	GetLeadSnapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error)

	SetLeadStatus(ctx context.Context, userID, leadID string, status leads.Status) error

	// MarkLeadDoNotCall sets do_not_call=true and status='dnc'. Idempotent.
	MarkLeadDoNotCall(ctx context.Context, userID, leadID string) error

	// ScheduleCallback sets next_callback_at and status='callback'.
	ScheduleCallback(ctx context.Context, userID, leadID string, at time.Time) error

	GetCall(ctx context.Context, userID, callID string) (calls.Call, bool, error)

	// ActiveWorkflow returns the lead's active enrollment, if any.
	ActiveWorkflow(ctx context.Context, userID, leadID string) (workflows.Progress, bool, error)

	// MatchingRules returns active rules matching the disposition by id or
	// fuzzy name, ordered by priority ascending.
	MatchingRules(ctx context.Context, userID, dispositionID, dispositionName string) ([]AutoActionRule, error)

	// UpsertDNCEntry is idempotent on (user_id, phone_number); a conflicting
	// add keeps the original reason and added_at.
	UpsertDNCEntry(ctx context.Context, e dnc.Entry) error

	// RemoveWorkflowEnrollments marks active enrollments removed. Empty
	// campaignID means all campaigns. Returns the number of rows affected.
	RemoveWorkflowEnrollments(ctx context.Context, userID, leadID, campaignID string) (int, error)

	// RemoveQueueEntries marks pending/scheduled dialing-queue rows removed.
	RemoveQueueEntries(ctx context.Context, userID, leadID string) (int, error)

	FindBoardByName(ctx context.Context, userID, name string) (pipeline.Board, bool, error)

	FindBoardByID(ctx context.Context, userID, boardID string) (pipeline.Board, bool, error)

	// MoveLeadToBoard upserts the current pointer and appends one history
	// row. Repeating the same move is idempotent on the pointer.
	MoveLeadToBoard(ctx context.Context, mv pipeline.Move) error

	AppendReachEvent(ctx context.Context, e reach.Event) error

	InsertAppointment(ctx context.Context, a Appointment) error
}

// Appointment is the local booking row written by the book_appointment
// action; the calendar-integration function syncs it externally after commit.
type Appointment struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	Date            string `json:"date" db:"date"`
	Time            string `json:"time" db:"time"`
	DurationMinutes int    `json:"duration_minutes" db:"duration_minutes"`
	Title           string `json:"title" db:"title"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
