package dnc

import "time"

// Entry is one do-not-call record.
//
// Invariants:
// - Adds are idempotent: UNIQUE (user_id, phone_number), conflicting adds
//   keep the original reason and added_at.
// - Entries are never deleted by the disposition subsystem.

type Entry struct {
	UserID      string `json:"user_id" db:"user_id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Reason string `json:"reason,omitempty" db:"reason"`

	AddedAt time.Time `json:"added_at" db:"added_at"`
}
