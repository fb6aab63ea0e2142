package catalog

import "time"

// Disposition is a named call outcome (e.g. "interested", "dnc").
//
// Reference data: immutable during router execution. PipelineStage, when set,
// names a pipeline board owned by the same user; the router moves the lead
// there after the disposition is applied.

type Disposition struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Name string `json:"name" db:"name"`

	// PipelineStage is an optional board name; empty means no auto-move.
	PipelineStage string `json:"pipeline_stage,omitempty" db:"pipeline_stage"`

	Active bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
