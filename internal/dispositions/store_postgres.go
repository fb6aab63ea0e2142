package dispositions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dialer-crm/internal/calls"
	"dialer-crm/internal/dnc"
	"dialer-crm/internal/leads"
	"dialer-crm/internal/pipeline"
	"dialer-crm/internal/reach"
	"dialer-crm/internal/workflows"
	"dialer-crm/pkg/storage"
)

// PostgresStore implements Store on database/sql (pgx stdlib driver).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return storage.WithTx(ctx, s.db, nil, func(ctx context.Context, sqlTx *sql.Tx) error {
		return fn(ctx, &pgTx{tx: sqlTx})
	})
}

func (s *PostgresStore) Snapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error) {
	return leadSnapshot(ctx, s.db, userID, leadID)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func leadSnapshot(ctx context.Context, q querier, userID, leadID string) (leads.Snapshot, error) {
	const query = `
SELECT l.id, l.status, l.do_not_call, l.phone, COALESCE(b.name, '')
FROM leads l
LEFT JOIN lead_pipeline_current c ON c.user_id = l.user_id AND c.lead_id = l.id
LEFT JOIN pipeline_boards b ON b.id = c.board_id
WHERE l.user_id = $1 AND l.id = $2`

	var snap leads.Snapshot
	err := q.QueryRowContext(ctx, query, userID, leadID).
		Scan(&snap.LeadID, &snap.Status, &snap.DoNotCall, &snap.Phone, &snap.PipelineBoard)
	if errors.Is(err, sql.ErrNoRows) {
		return leads.Snapshot{}, ErrLeadNotFound
	}
	if err != nil {
		return leads.Snapshot{}, err
	}
	return snap, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetLeadSnapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error) {
	return leadSnapshot(ctx, t.tx, userID, leadID)
}

func (t *pgTx) SetLeadStatus(ctx context.Context, userID, leadID string, status leads.Status) error {
	const q = `
UPDATE leads SET status = $3, updated_at = now()
WHERE user_id = $1 AND id = $2`

	res, err := t.tx.ExecContext(ctx, q, userID, leadID, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (t *pgTx) MarkLeadDoNotCall(ctx context.Context, userID, leadID string) error {
	const q = `
UPDATE leads SET do_not_call = TRUE, status = 'dnc', updated_at = now()
WHERE user_id = $1 AND id = $2`

	res, err := t.tx.ExecContext(ctx, q, userID, leadID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (t *pgTx) ScheduleCallback(ctx context.Context, userID, leadID string, at time.Time) error {
	const q = `
UPDATE leads SET next_callback_at = $3, status = 'callback', updated_at = now()
WHERE user_id = $1 AND id = $2`

	res, err := t.tx.ExecContext(ctx, q, userID, leadID, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (t *pgTx) GetCall(ctx context.Context, userID, callID string) (calls.Call, bool, error) {
	const q = `
SELECT id, user_id, lead_id, COALESCE(campaign_id, ''), status, COALESCE(outcome, ''), ended_at
FROM calls
WHERE user_id = $1 AND id = $2`

	var c calls.Call
	err := t.tx.QueryRowContext(ctx, q, userID, callID).
		Scan(&c.ID, &c.UserID, &c.LeadID, &c.CampaignID, &c.Status, &c.Outcome, &c.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return calls.Call{}, false, nil
	}
	if err != nil {
		return calls.Call{}, false, err
	}
	return c, true, nil
}

func (t *pgTx) ActiveWorkflow(ctx context.Context, userID, leadID string) (workflows.Progress, bool, error) {
	const q = `
SELECT id, user_id, lead_id, workflow_id, COALESCE(campaign_id, ''), status, current_step
FROM workflow_progress
WHERE user_id = $1 AND lead_id = $2 AND status = 'active'
ORDER BY created_at DESC
LIMIT 1`

	var p workflows.Progress
	err := t.tx.QueryRowContext(ctx, q, userID, leadID).
		Scan(&p.ID, &p.UserID, &p.LeadID, &p.WorkflowID, &p.CampaignID, &p.Status, &p.CurrentStep)
	if errors.Is(err, sql.ErrNoRows) {
		return workflows.Progress{}, false, nil
	}
	if err != nil {
		return workflows.Progress{}, false, err
	}
	return p, true, nil
}

func (t *pgTx) MatchingRules(ctx context.Context, userID, dispositionID, dispositionName string) ([]AutoActionRule, error) {
	const q = `
SELECT id, user_id, COALESCE(disposition_id, ''), COALESCE(disposition_name, ''),
       action_type, COALESCE(action_config, '{}'), priority, active
FROM disposition_auto_actions
WHERE user_id = $1
  AND active = TRUE
  AND (
    ($2 <> '' AND disposition_id = $2)
    OR ($3 <> '' AND disposition_name ILIKE '%' || $3 || '%')
  )
ORDER BY priority ASC`

	rows, err := t.tx.QueryContext(ctx, q, userID, dispositionID, dispositionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AutoActionRule
	for rows.Next() {
		var r AutoActionRule
		var cfg []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.DispositionID, &r.DispositionPattern,
			&r.Action, &cfg, &r.Priority, &r.Active); err != nil {
			return nil, err
		}
		r.Config = cfg
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *pgTx) UpsertDNCEntry(ctx context.Context, e dnc.Entry) error {
	const q = `
INSERT INTO dnc_list (user_id, phone_number, reason, added_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, phone_number) DO NOTHING`

	_, err := t.tx.ExecContext(ctx, q, e.UserID, e.PhoneNumber, e.Reason, e.AddedAt)
	return err
}

func (t *pgTx) RemoveWorkflowEnrollments(ctx context.Context, userID, leadID, campaignID string) (int, error) {
	const q = `
UPDATE workflow_progress SET status = 'removed', updated_at = now()
WHERE user_id = $1 AND lead_id = $2 AND status = 'active'
  AND ($3 = '' OR campaign_id = $3)`

	res, err := t.tx.ExecContext(ctx, q, userID, leadID, campaignID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t *pgTx) RemoveQueueEntries(ctx context.Context, userID, leadID string) (int, error) {
	const q = `
UPDATE dialing_queue SET status = 'removed'
WHERE user_id = $1 AND lead_id = $2 AND status IN ('pending', 'scheduled')`

	res, err := t.tx.ExecContext(ctx, q, userID, leadID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t *pgTx) FindBoardByName(ctx context.Context, userID, name string) (pipeline.Board, bool, error) {
	const q = `
SELECT id, user_id, name, position
FROM pipeline_boards
WHERE user_id = $1 AND lower(name) = lower($2)
LIMIT 1`

	return t.scanBoard(ctx, q, userID, name)
}

func (t *pgTx) FindBoardByID(ctx context.Context, userID, boardID string) (pipeline.Board, bool, error) {
	const q = `
SELECT id, user_id, name, position
FROM pipeline_boards
WHERE user_id = $1 AND id = $2`

	return t.scanBoard(ctx, q, userID, boardID)
}

func (t *pgTx) scanBoard(ctx context.Context, q, userID, arg string) (pipeline.Board, bool, error) {
	var b pipeline.Board
	err := t.tx.QueryRowContext(ctx, q, userID, arg).
		Scan(&b.ID, &b.UserID, &b.Name, &b.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Board{}, false, nil
	}
	if err != nil {
		return pipeline.Board{}, false, err
	}
	return b, true, nil
}

func (t *pgTx) MoveLeadToBoard(ctx context.Context, mv pipeline.Move) error {
	const upsert = `
INSERT INTO lead_pipeline_current (user_id, lead_id, board_id, moved_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, lead_id) DO UPDATE
SET board_id = EXCLUDED.board_id, moved_at = EXCLUDED.moved_at`

	if _, err := t.tx.ExecContext(ctx, upsert, mv.UserID, mv.LeadID, mv.BoardID, mv.MovedAt); err != nil {
		return err
	}

	const history = `
INSERT INTO lead_pipeline_history (id, user_id, lead_id, board_id, moved_by_user, moved_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := t.tx.ExecContext(ctx, history, mv.ID, mv.UserID, mv.LeadID, mv.BoardID, mv.MovedByUser, mv.MovedAt)
	return err
}

// AppendReachEvent reuses the reach repository bound to this transaction so
// the audit write participates in the cascade rollback.
func (t *pgTx) AppendReachEvent(ctx context.Context, e reach.Event) error {
	return reach.NewPostgresRepo(t.tx).Append(ctx, e)
}

func (t *pgTx) InsertAppointment(ctx context.Context, a Appointment) error {
	const q = `
INSERT INTO appointments (id, user_id, lead_id, date, time, duration_minutes, title, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := t.tx.ExecContext(ctx, q,
		a.ID, a.UserID, a.LeadID, a.Date, a.Time, a.DurationMinutes, a.Title, a.CreatedAt)
	return err
}
