package pipeline

import "time"

// Board is a named column in the Kanban-style lead-tracking view.

type Board struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`

	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// A lead's pipeline placement is modeled as an explicit current pointer plus
// an append-only history, rather than inferring "current" from the most
// recent timestamp:
//
//   lead_pipeline_current(user_id, lead_id, board_id, moved_at)
//     UNIQUE (user_id, lead_id), upserted on every move
//   lead_pipeline_history(id, user_id, lead_id, board_id, moved_at, moved_by_user)
//     INSERT-only
//
// Position is the current pointer; Move is one history entry.

type Position struct {
	UserID  string    `json:"user_id" db:"user_id"`
	LeadID  string    `json:"lead_id" db:"lead_id"`
	BoardID string    `json:"board_id" db:"board_id"`
	MovedAt time.Time `json:"moved_at" db:"moved_at"`
}

type Move struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	LeadID  string `json:"lead_id" db:"lead_id"`
	BoardID string `json:"board_id" db:"board_id"`

	// MovedByUser is false for automatic moves (disposition auto-move).
	MovedByUser bool `json:"moved_by_user" db:"moved_by_user"`

	MovedAt time.Time `json:"moved_at" db:"moved_at"`
}
