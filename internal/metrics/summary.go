package metrics

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidRequest = errors.New("metrics: invalid request")

// SummaryRequest selects the rows to aggregate.
type SummaryRequest struct {
	UserID string
	From   time.Time
	To     time.Time
}

// Summary aggregates disposition outcomes over a time range.
type Summary struct {
	UserID string `json:"user_id"`

	TotalDispositions int `json:"total_dispositions"`

	// ByDisposition counts invocations per normalized-name bucket.
	ByDisposition map[string]int `json:"by_disposition"`

	DNCCount        int `json:"dnc_count"`
	WithCallContext int `json:"with_call_context"`
	WithTranscript  int `json:"with_transcript"`

	TotalActionsTriggered int `json:"total_actions_triggered"`

	AverageTimeToDispositionSeconds int64 `json:"average_time_to_disposition_seconds"`
}

// SummaryService computes read-only aggregates from the metrics table.
type SummaryService struct {
	repo Repository
}

func NewSummaryService(repo Repository) *SummaryService { return &SummaryService{repo: repo} }

func (s *SummaryService) Summarize(ctx context.Context, req SummaryRequest) (Summary, error) {
	if req.UserID == "" {
		return Summary{}, ErrInvalidRequest
	}
	if req.From.IsZero() || req.To.IsZero() || !req.To.After(req.From) {
		return Summary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return Summary{}, errors.New("metrics: repository not configured")
	}

	rows, err := s.repo.List(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{UserID: req.UserID, ByDisposition: map[string]int{}}
	var ttdSum int64
	var ttdCount int64
	for _, r := range rows {
		out.TotalDispositions++
		out.ByDisposition[r.DispositionName]++
		if r.StatusAfter == "dnc" {
			out.DNCCount++
		}
		if r.CallID != "" {
			out.WithCallContext++
		}
		if r.HadTranscript {
			out.WithTranscript++
		}
		out.TotalActionsTriggered += len(r.ActionsTriggered)
		if r.TimeToDispositionSeconds > 0 {
			ttdSum += r.TimeToDispositionSeconds
			ttdCount++
		}
	}
	if ttdCount > 0 {
		out.AverageTimeToDispositionSeconds = ttdSum / ttdCount
	}
	return out, nil
}
