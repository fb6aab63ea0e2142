package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for disposition metrics.
// Append-only by design.

type Repository interface {
	Append(ctx context.Context, r Record) error
	List(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
}

var ErrInvalidRecord = errors.New("metrics: invalid record")

// Recorder writes one Record per router invocation.
type Recorder struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewRecorder(repo Repository, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{repo: repo, log: log, clock: time.Now}
}

// Record validates, stamps and appends. Returns an error for callers that
// care (tests); RecordBestEffort is the production entry point.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if r.repo == nil {
		return errors.New("metrics: repository not configured")
	}
	if rec.UserID == "" || rec.LeadID == "" {
		return ErrInvalidRecord
	}
	if rec.DispositionName == "" && rec.DispositionID == "" {
		return ErrInvalidRecord
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock().UTC()
	}
	if rec.TimeToDispositionSeconds < 0 {
		rec.TimeToDispositionSeconds = 0
	}
	return r.repo.Append(ctx, rec)
}

// RecordBestEffort logs and swallows failures: metrics must never fail a
// disposition request.
func (r *Recorder) RecordBestEffort(ctx context.Context, rec Record) {
	if err := r.Record(ctx, rec); err != nil {
		r.log.Error("disposition metrics write failed",
			"lead_id", rec.LeadID,
			"disposition", rec.DispositionName,
			"err", err,
		)
	}
}
