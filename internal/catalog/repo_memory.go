package catalog

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is a simple in-memory disposition catalog useful for tests.
// It is not intended for production use.

type MemoryRepo struct {
	mu   sync.Mutex
	rows []Disposition
}

func NewMemoryRepo(rows ...Disposition) *MemoryRepo {
	return &MemoryRepo{rows: rows}
}

func (r *MemoryRepo) Add(d Disposition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, d)
}

func (r *MemoryRepo) FindByID(ctx context.Context, userID, id string) (Disposition, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.rows {
		if d.UserID == userID && d.ID == id {
			return d, true, nil
		}
	}
	return Disposition{}, false, nil
}

func (r *MemoryRepo) FindByName(ctx context.Context, userID, name string) (Disposition, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.rows {
		if d.UserID == userID && strings.EqualFold(d.Name, name) {
			return d, true, nil
		}
	}
	return Disposition{}, false, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string) ([]Disposition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Disposition
	for _, d := range r.rows {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}
