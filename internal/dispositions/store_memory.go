package dispositions

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dialer-crm/internal/calls"
	"dialer-crm/internal/dnc"
	"dialer-crm/internal/leads"
	"dialer-crm/internal/pipeline"
	"dialer-crm/internal/reach"
	"dialer-crm/internal/workflows"
)

// MemoryStore is an in-memory Store used in tests. Not intended for
// production use.
//
// Transact clones the whole state, runs fn against the clone and swaps it
// in only on success, so rollback semantics match a real database.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

type memState struct {
	leads map[string]leads.Lead
	calls map[string]calls.Call

	rules    []AutoActionRule
	progress []workflows.Progress
	queue    []workflows.QueueEntry

	dncEntries map[string]dnc.Entry

	boards    []pipeline.Board
	positions map[string]pipeline.Position
	history   []pipeline.Move

	reachEvents  []reach.Event
	appointments []Appointment
}

func newMemState() *memState {
	return &memState{
		leads:      make(map[string]leads.Lead),
		calls:      make(map[string]calls.Call),
		dncEntries: make(map[string]dnc.Entry),
		positions:  make(map[string]pipeline.Position),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.leads {
		c.leads[k] = v
	}
	for k, v := range s.calls {
		c.calls[k] = v
	}
	for k, v := range s.dncEntries {
		c.dncEntries[k] = v
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	c.rules = append([]AutoActionRule(nil), s.rules...)
	c.progress = append([]workflows.Progress(nil), s.progress...)
	c.queue = append([]workflows.QueueEntry(nil), s.queue...)
	c.boards = append([]pipeline.Board(nil), s.boards...)
	c.history = append([]pipeline.Move(nil), s.history...)
	c.reachEvents = append([]reach.Event(nil), s.reachEvents...)
	c.appointments = append([]Appointment(nil), s.appointments...)
	return c
}

func memKey(userID, id string) string { return userID + "/" + id }

func (s *MemoryStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(ctx, &memTx{state: next}); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.snapshot(userID, leadID)
}

// Seed and inspection helpers for tests.

func (s *MemoryStore) SeedLead(l leads.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.leads[memKey(l.UserID, l.ID)] = l
}

func (s *MemoryStore) SeedCall(c calls.Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.calls[memKey(c.UserID, c.ID)] = c
}

func (s *MemoryStore) SeedRule(r AutoActionRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.rules = append(s.state.rules, r)
}

func (s *MemoryStore) SeedBoard(b pipeline.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.boards = append(s.state.boards, b)
}

func (s *MemoryStore) SeedProgress(p workflows.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.progress = append(s.state.progress, p)
}

func (s *MemoryStore) SeedQueueEntry(q workflows.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.queue = append(s.state.queue, q)
}

func (s *MemoryStore) Lead(userID, leadID string) (leads.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.state.leads[memKey(userID, leadID)]
	return l, ok
}

func (s *MemoryStore) DNCEntries() []dnc.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dnc.Entry, 0, len(s.state.dncEntries))
	for _, e := range s.state.dncEntries {
		out = append(out, e)
	}
	return out
}

func (s *MemoryStore) ReachEvents() []reach.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reach.Event(nil), s.state.reachEvents...)
}

func (s *MemoryStore) MoveHistory() []pipeline.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pipeline.Move(nil), s.state.history...)
}

func (s *MemoryStore) Appointments() []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Appointment(nil), s.state.appointments...)
}

func (s *MemoryStore) WorkflowProgress() []workflows.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workflows.Progress(nil), s.state.progress...)
}

func (s *MemoryStore) QueueEntries() []workflows.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workflows.QueueEntry(nil), s.state.queue...)
}

func (s *memState) snapshot(userID, leadID string) (leads.Snapshot, error) {
	l, ok := s.leads[memKey(userID, leadID)]
	if !ok {
		return leads.Snapshot{}, ErrLeadNotFound
	}
	snap := leads.Snapshot{
		LeadID:    l.ID,
		Status:    l.Status,
		DoNotCall: l.DoNotCall,
		Phone:     l.Phone,
	}
	if pos, ok := s.positions[memKey(userID, leadID)]; ok {
		for _, b := range s.boards {
			if b.ID == pos.BoardID {
				snap.PipelineBoard = b.Name
				break
			}
		}
	}
	return snap, nil
}

// memTx mutates one cloned state. Serialized by the store mutex.
type memTx struct {
	state *memState
}

func (t *memTx) GetLeadSnapshot(ctx context.Context, userID, leadID string) (leads.Snapshot, error) {
	return t.state.snapshot(userID, leadID)
}

func (t *memTx) SetLeadStatus(ctx context.Context, userID, leadID string, status leads.Status) error {
	l, ok := t.state.leads[memKey(userID, leadID)]
	if !ok {
		return ErrLeadNotFound
	}
	l.Status = status
	t.state.leads[memKey(userID, leadID)] = l
	return nil
}

func (t *memTx) MarkLeadDoNotCall(ctx context.Context, userID, leadID string) error {
	l, ok := t.state.leads[memKey(userID, leadID)]
	if !ok {
		return ErrLeadNotFound
	}
	l.DoNotCall = true
	l.Status = leads.StatusDNC
	t.state.leads[memKey(userID, leadID)] = l
	return nil
}

func (t *memTx) ScheduleCallback(ctx context.Context, userID, leadID string, at time.Time) error {
	l, ok := t.state.leads[memKey(userID, leadID)]
	if !ok {
		return ErrLeadNotFound
	}
	l.NextCallbackAt = &at
	l.Status = leads.StatusCallback
	t.state.leads[memKey(userID, leadID)] = l
	return nil
}

func (t *memTx) GetCall(ctx context.Context, userID, callID string) (calls.Call, bool, error) {
	c, ok := t.state.calls[memKey(userID, callID)]
	return c, ok, nil
}

func (t *memTx) ActiveWorkflow(ctx context.Context, userID, leadID string) (workflows.Progress, bool, error) {
	for _, p := range t.state.progress {
		if p.UserID == userID && p.LeadID == leadID && p.Status == workflows.ProgressActive {
			return p, true, nil
		}
	}
	return workflows.Progress{}, false, nil
}

func (t *memTx) MatchingRules(ctx context.Context, userID, dispositionID, dispositionName string) ([]AutoActionRule, error) {
	name := strings.ToLower(dispositionName)
	var out []AutoActionRule
	for _, r := range t.state.rules {
		if r.UserID != userID || !r.Active {
			continue
		}
		byID := dispositionID != "" && r.DispositionID == dispositionID
		byName := name != "" && r.DispositionPattern != "" &&
			strings.Contains(strings.ToLower(r.DispositionPattern), name)
		if byID || byName {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (t *memTx) UpsertDNCEntry(ctx context.Context, e dnc.Entry) error {
	k := memKey(e.UserID, e.PhoneNumber)
	if _, exists := t.state.dncEntries[k]; exists {
		return nil
	}
	t.state.dncEntries[k] = e
	return nil
}

func (t *memTx) RemoveWorkflowEnrollments(ctx context.Context, userID, leadID, campaignID string) (int, error) {
	n := 0
	for i, p := range t.state.progress {
		if p.UserID != userID || p.LeadID != leadID || p.Status != workflows.ProgressActive {
			continue
		}
		if campaignID != "" && p.CampaignID != campaignID {
			continue
		}
		t.state.progress[i].Status = workflows.ProgressRemoved
		n++
	}
	return n, nil
}

func (t *memTx) RemoveQueueEntries(ctx context.Context, userID, leadID string) (int, error) {
	n := 0
	for i, q := range t.state.queue {
		if q.UserID != userID || q.LeadID != leadID {
			continue
		}
		if q.Status != workflows.QueuePending && q.Status != workflows.QueueScheduled {
			continue
		}
		t.state.queue[i].Status = workflows.QueueRemoved
		n++
	}
	return n, nil
}

func (t *memTx) FindBoardByName(ctx context.Context, userID, name string) (pipeline.Board, bool, error) {
	for _, b := range t.state.boards {
		if b.UserID == userID && strings.EqualFold(b.Name, name) {
			return b, true, nil
		}
	}
	return pipeline.Board{}, false, nil
}

func (t *memTx) FindBoardByID(ctx context.Context, userID, boardID string) (pipeline.Board, bool, error) {
	for _, b := range t.state.boards {
		if b.UserID == userID && b.ID == boardID {
			return b, true, nil
		}
	}
	return pipeline.Board{}, false, nil
}

func (t *memTx) MoveLeadToBoard(ctx context.Context, mv pipeline.Move) error {
	t.state.positions[memKey(mv.UserID, mv.LeadID)] = pipeline.Position{
		UserID:  mv.UserID,
		LeadID:  mv.LeadID,
		BoardID: mv.BoardID,
		MovedAt: mv.MovedAt,
	}
	t.state.history = append(t.state.history, mv)
	return nil
}

func (t *memTx) AppendReachEvent(ctx context.Context, e reach.Event) error {
	t.state.reachEvents = append(t.state.reachEvents, e)
	return nil
}

func (t *memTx) InsertAppointment(ctx context.Context, a Appointment) error {
	t.state.appointments = append(t.state.appointments, a)
	return nil
}
