package reach

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for reachability events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error

	// ListByLead returns a lead's events, newest first.
	ListByLead(ctx context.Context, userID, leadID string) ([]Event, error)
}

// Service logs reachability events (disposition set, DNC added).
//
// Callers should treat this as best-effort observability: inside the cascade
// transaction the write participates in rollback, but callers never surface
// append errors to end users.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("reach: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("reach: repository not configured")
	}
	if e.UserID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// History returns a lead's reachability timeline, newest first.
func (s *Service) History(ctx context.Context, userID, leadID string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("reach: repository not configured")
	}
	if userID == "" || leadID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByLead(ctx, userID, leadID)
}

// LogDispositionSet records one router invocation against a lead.
func (s *Service) LogDispositionSet(ctx context.Context, userID, leadID, callID, campaignID, dispositionID, setBy, message, metadata string) error {
	return s.Append(ctx, Event{
		UserID:        userID,
		Type:          EventTypeDispositionSet,
		LeadID:        leadID,
		CallID:        callID,
		CampaignID:    campaignID,
		DispositionID: dispositionID,
		SetBy:         setBy,
		Message:       message,
		Metadata:      metadata,
	})
}
