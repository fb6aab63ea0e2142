package metrics

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecorder_RequiresUserLeadAndDisposition(t *testing.T) {
	rec := NewRecorder(NewMemoryRepo(), nil)

	if err := rec.Record(context.Background(), Record{LeadID: "l", DispositionName: "dnc"}); err != ErrInvalidRecord {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := rec.Record(context.Background(), Record{UserID: "u", LeadID: "l"}); err != ErrInvalidRecord {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestRecorder_StampsAndClamps(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)

	err := rec.Record(context.Background(), Record{
		UserID:                   "u",
		LeadID:                   "l",
		DispositionName:          "interested",
		TimeToDispositionSeconds: -5,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rows := repo.Records()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row")
	}
	if rows[0].ID == "" || rows[0].CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp")
	}
	if rows[0].TimeToDispositionSeconds != 0 {
		t.Fatalf("expected negative ttd clamped to 0, got %d", rows[0].TimeToDispositionSeconds)
	}
}

func TestRecorder_BestEffortSwallowsErrors(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailAppend = errors.New("db down")
	rec := NewRecorder(repo, nil)

	// Must not panic or propagate.
	rec.RecordBestEffort(context.Background(), Record{UserID: "u", LeadID: "l", DispositionName: "dnc"})

	if len(repo.Records()) != 0 {
		t.Fatalf("expected no rows")
	}
}

func TestSummaryService_Aggregates(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := []Record{
		{UserID: "u", LeadID: "l1", DispositionName: "dnc", StatusAfter: "dnc", CallID: "c1", TimeToDispositionSeconds: 30, ActionsTriggered: []string{"Added to DNC list"}, CreatedAt: base},
		{UserID: "u", LeadID: "l2", DispositionName: "interested", StatusAfter: "interested", HadTranscript: true, TimeToDispositionSeconds: 10, ActionsTriggered: []string{"Moved to stage Hot", "SMS sent"}, CreatedAt: base.Add(time.Hour)},
		{UserID: "u", LeadID: "l3", DispositionName: "interested", StatusAfter: "interested", CreatedAt: base.Add(2 * time.Hour)},
		// Other tenant; must be excluded.
		{UserID: "other", LeadID: "l4", DispositionName: "dnc", StatusAfter: "dnc", CreatedAt: base},
	}
	for i := range seed {
		seed[i].ID = seed[i].LeadID
		if err := repo.Append(context.Background(), seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := NewSummaryService(repo)
	sum, err := svc.Summarize(context.Background(), SummaryRequest{
		UserID: "u",
		From:   base.Add(-time.Hour),
		To:     base.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if sum.TotalDispositions != 3 {
		t.Fatalf("expected 3 dispositions, got %d", sum.TotalDispositions)
	}
	if sum.ByDisposition["interested"] != 2 || sum.ByDisposition["dnc"] != 1 {
		t.Fatalf("unexpected buckets: %+v", sum.ByDisposition)
	}
	if sum.DNCCount != 1 {
		t.Fatalf("expected 1 dnc, got %d", sum.DNCCount)
	}
	if sum.WithCallContext != 1 || sum.WithTranscript != 1 {
		t.Fatalf("unexpected context counts: %+v", sum)
	}
	if sum.TotalActionsTriggered != 3 {
		t.Fatalf("expected 3 actions, got %d", sum.TotalActionsTriggered)
	}
	if sum.AverageTimeToDispositionSeconds != 20 {
		t.Fatalf("expected avg ttd 20, got %d", sum.AverageTimeToDispositionSeconds)
	}
}

func TestSummaryService_RejectsBadRange(t *testing.T) {
	svc := NewSummaryService(NewMemoryRepo())
	_, err := svc.Summarize(context.Background(), SummaryRequest{UserID: "u"})
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
