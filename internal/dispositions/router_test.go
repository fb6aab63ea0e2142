package dispositions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"dialer-crm/internal/calls"
	"dialer-crm/internal/catalog"
	"dialer-crm/internal/connectors"
	"dialer-crm/internal/leads"
	"dialer-crm/internal/metrics"
	"dialer-crm/internal/pipeline"
	"dialer-crm/internal/workflows"
)

const (
	testUser = "user-1"
	testLead = "lead-1"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type routerFixture struct {
	router    *Router
	store     *MemoryStore
	catalog   *catalog.MemoryRepo
	metrics   *metrics.MemoryRepo
	workflows *connectors.MemoryWorkflows
	sms       *connectors.MemorySMS
	calendar  *connectors.MemoryCalendar
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		store:     NewMemoryStore(),
		catalog:   catalog.NewMemoryRepo(),
		metrics:   metrics.NewMemoryRepo(),
		workflows: &connectors.MemoryWorkflows{},
		sms:       &connectors.MemorySMS{},
		calendar:  &connectors.MemoryCalendar{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.router = NewRouter(
		f.store,
		catalog.NewService(f.catalog),
		metrics.NewRecorder(f.metrics, log),
		connectors.Bundle{Workflows: f.workflows, SMS: f.sms, Calendar: f.calendar},
		DefaultTriggerSets(),
		log,
	)
	f.router.clock = func() time.Time { return testNow }

	f.store.SeedLead(leads.Lead{
		ID:     testLead,
		UserID: testUser,
		Phone:  "+15551234567",
		Status: leads.StatusContacted,
	})
	return f
}

func TestProcessValidation(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	cases := []Request{
		{UserID: testUser, DispositionName: "interested"},
		{LeadID: testLead, DispositionName: "interested"},
		{LeadID: testLead, UserID: testUser},
	}
	for _, req := range cases {
		if _, err := f.router.Process(ctx, req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Process(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
	}
	if n := len(f.store.ReachEvents()); n != 0 {
		t.Fatalf("invalid requests wrote %d reach events", n)
	}
}

func TestProcessDNCDisposition(t *testing.T) {
	f := newRouterFixture(t)

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "DNC - Do Not Call",
		SetBy:           "manual",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Fatal("Success = false")
	}

	lead, _ := f.store.Lead(testUser, testLead)
	if !lead.DoNotCall || lead.Status != leads.StatusDNC {
		t.Fatalf("lead = do_not_call=%v status=%s, want do_not_call=true status=dnc", lead.DoNotCall, lead.Status)
	}

	entries := f.store.DNCEntries()
	if len(entries) != 1 || entries[0].PhoneNumber != "+15551234567" {
		t.Fatalf("dnc entries = %+v", entries)
	}

	if !containsAction(res.Actions, "Added to DNC list") {
		t.Fatalf("actions = %v, missing %q", res.Actions, "Added to DNC list")
	}

	// dnc_added plus the trailing disposition_set audit event.
	if n := len(f.store.ReachEvents()); n != 2 {
		t.Fatalf("reach events = %d, want 2", n)
	}
}

func TestProcessRemoveEverywhere(t *testing.T) {
	f := newRouterFixture(t)
	f.store.SeedProgress(workflows.Progress{ID: "wp-1", UserID: testUser, LeadID: testLead, WorkflowID: "wf-1", Status: workflows.ProgressActive})
	f.store.SeedProgress(workflows.Progress{ID: "wp-2", UserID: testUser, LeadID: testLead, WorkflowID: "wf-2", Status: workflows.ProgressActive})
	f.store.SeedProgress(workflows.Progress{ID: "wp-3", UserID: testUser, LeadID: testLead, WorkflowID: "wf-3", Status: workflows.ProgressCompleted})
	f.store.SeedQueueEntry(workflows.QueueEntry{ID: "q-1", UserID: testUser, LeadID: testLead, CampaignID: "c-1", Status: workflows.QueuePending})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "Wrong Number",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []string{
		"Removed from 2 active workflows",
		"Removed 1 queued dials",
		"Status set to wrong_number",
	}
	for _, w := range want {
		if !containsAction(res.Actions, w) {
			t.Fatalf("actions = %v, missing %q", res.Actions, w)
		}
	}

	lead, _ := f.store.Lead(testUser, testLead)
	if lead.Status != "wrong_number" {
		t.Fatalf("lead status = %s, want wrong_number", lead.Status)
	}
	for _, p := range f.store.WorkflowProgress() {
		if p.ID == "wp-3" && p.Status != workflows.ProgressCompleted {
			t.Fatalf("completed enrollment was touched: %+v", p)
		}
		if (p.ID == "wp-1" || p.ID == "wp-2") && p.Status != workflows.ProgressRemoved {
			t.Fatalf("active enrollment not removed: %+v", p)
		}
	}
	if qs := f.store.QueueEntries(); qs[0].Status != workflows.QueueRemoved {
		t.Fatalf("queue entry = %+v, want removed", qs[0])
	}
}

func TestProcessAutoActionsRunInPriorityOrder(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.Add(catalog.Disposition{ID: "d-cb", UserID: testUser, Name: "callback requested", Active: true})

	smsCfg, _ := json.Marshal(SendSMSConfig{Body: "thanks for your time"})
	cbCfg, _ := json.Marshal(ScheduleCallbackConfig{DelayHours: 24})
	f.store.SeedRule(AutoActionRule{
		ID: "r-sms", UserID: testUser, DispositionPattern: "callback requested",
		Action: ActionSendSMS, Config: smsCfg, Priority: 2, Active: true,
	})
	f.store.SeedRule(AutoActionRule{
		ID: "r-cb", UserID: testUser, DispositionPattern: "callback requested",
		Action: ActionScheduleCallback, Config: cbCfg, Priority: 1, Active: true,
	})
	f.store.SeedRule(AutoActionRule{
		ID: "r-off", UserID: testUser, DispositionPattern: "callback requested",
		Action: ActionSendSMS, Config: smsCfg, Priority: 0, Active: false,
	})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "callback requested",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(res.Actions) < 2 || res.Actions[0] != "Callback scheduled in 24 hours" {
		t.Fatalf("actions = %v, want callback first (priority order)", res.Actions)
	}

	lead, _ := f.store.Lead(testUser, testLead)
	if lead.Status != leads.StatusCallback || lead.NextCallbackAt == nil {
		t.Fatalf("lead = %+v, want callback status and next_callback_at", lead)
	}
	wantAt := testNow.Add(24 * time.Hour)
	if !lead.NextCallbackAt.Equal(wantAt) {
		t.Fatalf("next_callback_at = %v, want %v", lead.NextCallbackAt, wantAt)
	}

	if len(f.sms.Sent) != 1 {
		t.Fatalf("sms sent = %d, want 1", len(f.sms.Sent))
	}
	sent := f.sms.Sent[0]
	if sent.To != "+15551234567" || sent.Body != "thanks for your time" || sent.From == "" {
		t.Fatalf("sms = %+v", sent)
	}
}

func TestProcessTranscriptForcesDNC(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.Add(catalog.Disposition{ID: "d-int", UserID: testUser, Name: "interested", Active: true})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionID:   "d-int",
		DispositionName: "interested",
		Transcript:      "Honestly just STOP CALLING me or I will get a lawyer.",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	lead, _ := f.store.Lead(testUser, testLead)
	if !lead.DoNotCall {
		t.Fatal("hostile transcript did not force DNC")
	}
	if !containsAction(res.Actions, "Added to DNC list") {
		t.Fatalf("actions = %v", res.Actions)
	}
}

func TestProcessDNCActionLineAddedOnce(t *testing.T) {
	f := newRouterFixture(t)

	// Disposition keyword and transcript scan both trip DNC.
	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "rude",
		Transcript:      "do not call me again",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	n := 0
	for _, a := range res.Actions {
		if a == "Added to DNC list" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("DNC action line appeared %d times in %v, want 1", n, res.Actions)
	}
	if entries := f.store.DNCEntries(); len(entries) != 1 {
		t.Fatalf("dnc entries = %d, want 1", len(entries))
	}
}

func TestProcessPipelineAutoMove(t *testing.T) {
	f := newRouterFixture(t)
	f.catalog.Add(catalog.Disposition{
		ID: "d-hot", UserID: testUser, Name: "hot lead", PipelineStage: "Interested", Active: true,
	})
	f.store.SeedBoard(pipeline.Board{ID: "b-1", UserID: testUser, Name: "Interested", Position: 2})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:        testLead,
		UserID:        testUser,
		DispositionID: "d-hot",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !containsAction(res.Actions, "Moved to pipeline stage Interested") {
		t.Fatalf("actions = %v", res.Actions)
	}
	moves := f.store.MoveHistory()
	if len(moves) != 1 || moves[0].BoardID != "b-1" || moves[0].MovedByUser {
		t.Fatalf("history = %+v, want one automatic move to b-1", moves)
	}
	snap, err := f.store.Snapshot(context.Background(), testUser, testLead)
	if err != nil || snap.PipelineBoard != "Interested" {
		t.Fatalf("snapshot = %+v err=%v", snap, err)
	}
}

func TestProcessRollsBackWholeCascadeOnFailure(t *testing.T) {
	f := newRouterFixture(t)

	// A rule with an invalid config fails after the DNC keyword trigger
	// would have run; nothing may survive the rollback.
	f.store.SeedRule(AutoActionRule{
		ID: "r-bad", UserID: testUser, DispositionPattern: "rude",
		Action: ActionSendSMS, Config: json.RawMessage(`{}`), Priority: 1, Active: true,
	})

	_, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "rude",
	})
	if !errors.Is(err, ErrBadActionConfig) {
		t.Fatalf("err = %v, want ErrBadActionConfig", err)
	}

	lead, _ := f.store.Lead(testUser, testLead)
	if lead.DoNotCall || lead.Status != leads.StatusContacted {
		t.Fatalf("lead mutated despite rollback: %+v", lead)
	}
	if n := len(f.store.DNCEntries()); n != 0 {
		t.Fatalf("dnc entries = %d after rollback", n)
	}
	if n := len(f.store.ReachEvents()); n != 0 {
		t.Fatalf("reach events = %d after rollback", n)
	}
	if n := len(f.metrics.Records()); n != 0 {
		t.Fatalf("metrics rows = %d after failed cascade", n)
	}
	if n := len(f.sms.Sent); n != 0 {
		t.Fatalf("sms sent = %d after rollback", n)
	}
}

func TestProcessMetricsMirrorActions(t *testing.T) {
	f := newRouterFixture(t)
	ended := testNow.Add(-45 * time.Second)
	f.store.SeedCall(calls.Call{
		ID: "call-1", UserID: testUser, LeadID: testLead,
		CampaignID: "camp-1", Status: calls.StatusCompleted, EndedAt: &ended,
	})
	f.store.SeedProgress(workflows.Progress{
		ID: "wp-1", UserID: testUser, LeadID: testLead,
		WorkflowID: "wf-1", Status: workflows.ProgressActive,
	})
	conf := 0.92

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "not interested",
		CallID:          "call-1",
		CallOutcome:     "completed",
		Transcript:      "no thanks, good luck",
		AIConfidence:    &conf,
		SetBy:           "ai",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	recs := f.metrics.Records()
	if len(recs) != 1 {
		t.Fatalf("metrics rows = %d, want 1", len(recs))
	}
	rec := recs[0]
	if len(rec.ActionsTriggered) != len(res.Actions) {
		t.Fatalf("metrics actions = %v, result actions = %v", rec.ActionsTriggered, res.Actions)
	}
	for i := range res.Actions {
		if rec.ActionsTriggered[i] != res.Actions[i] {
			t.Fatalf("metrics actions = %v, result actions = %v", rec.ActionsTriggered, res.Actions)
		}
	}
	if rec.TimeToDispositionSeconds != 45 {
		t.Fatalf("time_to_disposition = %d, want 45", rec.TimeToDispositionSeconds)
	}
	if rec.CampaignID != "camp-1" || rec.WorkflowID != "wf-1" {
		t.Fatalf("call context = campaign %q workflow %q", rec.CampaignID, rec.WorkflowID)
	}
	if rec.StatusBefore != "contacted" || rec.StatusAfter != "not_interested" {
		t.Fatalf("status transition = %s -> %s", rec.StatusBefore, rec.StatusAfter)
	}
	if !rec.HadTranscript || rec.SetBy != "ai" || rec.AIConfidence == nil || *rec.AIConfidence != 0.92 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestProcessMetricsFailureDoesNotFailRequest(t *testing.T) {
	f := newRouterFixture(t)
	f.metrics.FailAppend = errors.New("metrics store down")

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "interested",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Fatal("Success = false when only metrics failed")
	}
}

func TestProcessConnectorFailureDoesNotFailRequest(t *testing.T) {
	f := newRouterFixture(t)
	f.workflows.Err = errors.New("executor unreachable")

	cfg, _ := json.Marshal(StartWorkflowConfig{WorkflowID: "wf-9"})
	f.store.SeedRule(AutoActionRule{
		ID: "r-wf", UserID: testUser, DispositionPattern: "interested",
		Action: ActionStartWorkflow, Config: cfg, Priority: 1, Active: true,
	})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "interested",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !containsAction(res.Actions, "Started workflow wf-9") {
		t.Fatalf("actions = %v", res.Actions)
	}
	// The database commit stands even though the executor call failed.
	if n := len(f.store.ReachEvents()); n != 1 {
		t.Fatalf("reach events = %d, want 1", n)
	}
}

func TestProcessBookAppointment(t *testing.T) {
	f := newRouterFixture(t)
	cfg, _ := json.Marshal(BookAppointmentConfig{
		Date: "2025-06-03", Time: "14:30", DurationMinutes: 30, Title: "Solar consult",
	})
	f.store.SeedRule(AutoActionRule{
		ID: "r-appt", UserID: testUser, DispositionPattern: "appointment set",
		Action: ActionBookAppointment, Config: cfg, Priority: 1, Active: true,
	})

	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "appointment set",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !containsAction(res.Actions, "Appointment booked for 2025-06-03 14:30") {
		t.Fatalf("actions = %v", res.Actions)
	}
	appts := f.store.Appointments()
	if len(appts) != 1 || appts[0].Title != "Solar consult" {
		t.Fatalf("appointments = %+v", appts)
	}
	if len(f.calendar.Booked) != 1 || f.calendar.Booked[0].Date != "2025-06-03" {
		t.Fatalf("calendar bookings = %+v", f.calendar.Booked)
	}
}

func TestProcessUnknownDispositionStillRunsKeywordTriggers(t *testing.T) {
	f := newRouterFixture(t)

	// No catalog row exists for this name; the keyword cascade must not
	// depend on catalog membership.
	res, err := f.router.Process(context.Background(), Request{
		LeadID:          testLead,
		UserID:          testUser,
		DispositionName: "customer was hostile",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !containsAction(res.Actions, "Added to DNC list") {
		t.Fatalf("actions = %v", res.Actions)
	}
}

func containsAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
