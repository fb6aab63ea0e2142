package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads the dispositions table.
//
// Schema assumption:
//   dispositions(id, user_id, name, pipeline_stage, active, created_at)
// with UNIQUE (user_id, lower(name)).

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const dispositionColumns = `id, user_id, name, COALESCE(pipeline_stage, ''), active, created_at`

func (r *PostgresRepo) FindByID(ctx context.Context, userID, id string) (Disposition, bool, error) {
	const q = `
SELECT ` + dispositionColumns + `
FROM dispositions
WHERE user_id = $1 AND id = $2
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, userID, id))
}

func (r *PostgresRepo) FindByName(ctx context.Context, userID, name string) (Disposition, bool, error) {
	const q = `
SELECT ` + dispositionColumns + `
FROM dispositions
WHERE user_id = $1 AND lower(name) = lower($2)
LIMIT 1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, userID, name))
}

func (r *PostgresRepo) List(ctx context.Context, userID string) ([]Disposition, error) {
	const q = `
SELECT ` + dispositionColumns + `
FROM dispositions
WHERE user_id = $1 AND active
ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Disposition
	for rows.Next() {
		var d Disposition
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.PipelineStage, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) scanOne(row *sql.Row) (Disposition, bool, error) {
	var d Disposition
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.PipelineStage, &d.Active, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Disposition{}, false, nil
		}
		return Disposition{}, false, err
	}
	return d, true, nil
}
