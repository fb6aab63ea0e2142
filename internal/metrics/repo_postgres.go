package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// PostgresRepo persists disposition_metrics rows.
//
// Schema assumption:
//   disposition_metrics(id, user_id, lead_id, disposition_id, disposition_name,
//     call_id, campaign_id, workflow_id, status_before, status_after,
//     pipeline_stage_before, pipeline_stage_after, time_to_disposition_seconds,
//     actions_triggered jsonb, call_outcome, had_transcript, auto_actions_count,
//     set_by, ai_confidence, created_at)
// INSERT-only.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec Record) error {
	actions, err := json.Marshal(rec.ActionsTriggered)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO disposition_metrics (
  id, user_id, lead_id, disposition_id, disposition_name,
  call_id, campaign_id, workflow_id,
  status_before, status_after, pipeline_stage_before, pipeline_stage_after,
  time_to_disposition_seconds, actions_triggered,
  call_outcome, had_transcript, auto_actions_count, set_by, ai_confidence,
  created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
)
`
	_, err = r.db.ExecContext(ctx, q,
		rec.ID,
		rec.UserID,
		rec.LeadID,
		nullable(rec.DispositionID),
		rec.DispositionName,
		nullable(rec.CallID),
		nullable(rec.CampaignID),
		nullable(rec.WorkflowID),
		rec.StatusBefore,
		rec.StatusAfter,
		rec.PipelineStageBefore,
		rec.PipelineStageAfter,
		rec.TimeToDispositionSeconds,
		actions,
		rec.CallOutcome,
		rec.HadTranscript,
		rec.AutoActionsCount,
		nullable(rec.SetBy),
		rec.AIConfidence,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	const q = `
SELECT id, user_id, lead_id, COALESCE(disposition_id, ''), disposition_name,
       COALESCE(call_id, ''), COALESCE(campaign_id, ''), COALESCE(workflow_id, ''),
       status_before, status_after, pipeline_stage_before, pipeline_stage_after,
       time_to_disposition_seconds, actions_triggered,
       call_outcome, had_transcript, auto_actions_count, COALESCE(set_by, ''), ai_confidence,
       created_at
FROM disposition_metrics
WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var actions []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.LeadID,
			&rec.DispositionID,
			&rec.DispositionName,
			&rec.CallID,
			&rec.CampaignID,
			&rec.WorkflowID,
			&rec.StatusBefore,
			&rec.StatusAfter,
			&rec.PipelineStageBefore,
			&rec.PipelineStageAfter,
			&rec.TimeToDispositionSeconds,
			&actions,
			&rec.CallOutcome,
			&rec.HadTranscript,
			&rec.AutoActionsCount,
			&rec.SetBy,
			&rec.AIConfidence,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &rec.ActionsTriggered); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
