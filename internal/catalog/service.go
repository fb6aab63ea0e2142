package catalog

import (
	"context"
	"errors"
)

// Repository abstracts disposition reference-data access.
//
// Implementations must enforce user filtering. Name resolution is
// case-insensitive.
type Repository interface {
	FindByID(ctx context.Context, userID, id string) (Disposition, bool, error)
	FindByName(ctx context.Context, userID, name string) (Disposition, bool, error)
	List(ctx context.Context, userID string) ([]Disposition, error)
}

var ErrInvalidRequest = errors.New("catalog: invalid request")

// Service resolves dispositions for the router and the read API.
// Pure lookups; no side effects.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Resolve finds a disposition by id when given, falling back to
// case-insensitive name lookup. A missing disposition is not an error: the
// router still applies keyword triggers for unknown names.
func (s *Service) Resolve(ctx context.Context, userID, id, name string) (Disposition, bool, error) {
	if userID == "" {
		return Disposition{}, false, ErrInvalidRequest
	}
	if s.repo == nil {
		return Disposition{}, false, errors.New("catalog: repository not configured")
	}

	if id != "" {
		d, ok, err := s.repo.FindByID(ctx, userID, id)
		if err != nil || ok {
			return d, ok, err
		}
	}
	if name != "" {
		return s.repo.FindByName(ctx, userID, name)
	}
	return Disposition{}, false, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Disposition, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	if s.repo == nil {
		return nil, errors.New("catalog: repository not configured")
	}
	return s.repo.List(ctx, userID)
}
