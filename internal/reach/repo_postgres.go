package reach

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to the reachability_events table.
//
// Writes go through Querier so the repo can run either on the pool or inside
// the cascade transaction.

type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type PostgresRepo struct {
	q Querier
}

func NewPostgresRepo(q Querier) *PostgresRepo { return &PostgresRepo{q: q} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO reachability_events (
  id, user_id, event_type, lead_id, call_id, campaign_id, disposition_id,
  set_by, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := r.q.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		e.Type,
		nullable(e.LeadID),
		nullable(e.CallID),
		nullable(e.CampaignID),
		nullable(e.DispositionID),
		nullable(e.SetBy),
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByLead(ctx context.Context, userID, leadID string) ([]Event, error) {
	const q = `
SELECT id, user_id, event_type,
       COALESCE(lead_id, ''), COALESCE(call_id, ''), COALESCE(campaign_id, ''),
       COALESCE(disposition_id, ''), COALESCE(set_by, ''), message,
       COALESCE(metadata::text, ''), created_at
FROM reachability_events
WHERE user_id = $1 AND lead_id = $2
ORDER BY created_at DESC
`
	rows, err := r.q.QueryContext(ctx, q, userID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.LeadID, &e.CallID,
			&e.CampaignID, &e.DispositionID, &e.SetBy, &e.Message,
			&e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
