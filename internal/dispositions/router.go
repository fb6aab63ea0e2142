package dispositions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dialer-crm/internal/catalog"
	"dialer-crm/internal/connectors"
	"dialer-crm/internal/dnc"
	"dialer-crm/internal/leads"
	"dialer-crm/internal/metrics"
	"dialer-crm/internal/pipeline"
	"dialer-crm/internal/reach"

	"github.com/google/uuid"
)

// Router executes the disposition cascade: given a call outcome for a lead,
// it runs user-defined auto-actions, the built-in DNC and remove-everywhere
// triggers, the transcript scan and the pipeline auto-move, then records
// audit and metrics rows.
//
// Atomicity: steps 1-8 of the cascade run inside ONE store transaction. A
// failure anywhere rolls back every mutation and the request fails whole.
// Two things happen after commit, deliberately outside the transaction:
//   - collaborator calls (start_workflow, send_sms, calendar sync) so a
//     rollback can never orphan an external side effect; their failures are
//     logged, not returned;
//   - the metrics row, which is best-effort observability.

type Router struct {
	store    Store
	catalog  *catalog.Service
	recorder *metrics.Recorder
	conn     connectors.Bundle
	triggers TriggerSets

	log   *slog.Logger
	clock func() time.Time
}

func NewRouter(store Store, cat *catalog.Service, rec *metrics.Recorder, conn connectors.Bundle, triggers TriggerSets, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		store:    store,
		catalog:  cat,
		recorder: rec,
		conn:     conn,
		triggers: triggers,
		log:      log,
		clock:    time.Now,
	}
}

var (
	ErrInvalidRequest = errors.New("dispositions: leadId, userId and a disposition are required")
	ErrUnknownAction  = errors.New("dispositions: unknown action")
)

// Request mirrors the process_disposition function payload.
type Request struct {
	LeadID string `json:"leadId"`
	UserID string `json:"userId"`

	DispositionID   string `json:"dispositionId,omitempty"`
	DispositionName string `json:"dispositionName,omitempty"`

	CallOutcome string `json:"callOutcome,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	CallID      string `json:"callId,omitempty"`

	AIConfidence *float64 `json:"aiConfidence,omitempty"`

	// SetBy records who triggered the disposition: ai, manual or automation.
	SetBy string `json:"setBy,omitempty"`
}

type Result struct {
	Success bool     `json:"success"`
	Actions []string `json:"actions"`
}

// cascade accumulates state across the transaction closure.
type cascade struct {
	actions []string
	post    []postCall

	before     leads.Snapshot
	campaignID string
	workflowID string
	ttdSeconds int64

	autoActionsRun int
	dncApplied     bool
}

// postCall is a collaborator invocation deferred until after commit.
type postCall struct {
	desc string
	fn   func(ctx context.Context) error
}

func (c *cascade) add(line string) { c.actions = append(c.actions, line) }

func (c *cascade) later(desc string, fn func(ctx context.Context) error) {
	c.post = append(c.post, postCall{desc: desc, fn: fn})
}

// Process runs the full cascade. The returned Actions list describes every
// mutation performed, in order, for caller-side display.
func (r *Router) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.LeadID) == "" || strings.TrimSpace(req.UserID) == "" {
		return Result{}, ErrInvalidRequest
	}
	if strings.TrimSpace(req.DispositionID) == "" && strings.TrimSpace(req.DispositionName) == "" {
		return Result{}, ErrInvalidRequest
	}

	now := r.clock().UTC()

	// Resolve the disposition row up front; it is immutable reference data.
	// An unknown name still goes through the keyword triggers.
	disp, dispFound, err := r.catalog.Resolve(ctx, req.UserID, req.DispositionID, req.DispositionName)
	if err != nil {
		return Result{}, err
	}

	name := req.DispositionName
	if name == "" && dispFound {
		name = disp.Name
	}
	normalized := catalog.NormalizeName(name)

	dispositionID := req.DispositionID
	if dispositionID == "" && dispFound {
		dispositionID = disp.ID
	}

	cas := &cascade{}

	err = r.store.Transact(ctx, func(ctx context.Context, tx Tx) error {
		// 1. Snapshot for before/after metrics.
		before, err := tx.GetLeadSnapshot(ctx, req.UserID, req.LeadID)
		if err != nil {
			return err
		}
		cas.before = before

		// 2. Call context: elapsed time from call end, campaign, workflow.
		if req.CallID != "" {
			call, ok, err := tx.GetCall(ctx, req.UserID, req.CallID)
			if err != nil {
				return err
			}
			if ok {
				cas.campaignID = call.CampaignID
				if call.EndedAt != nil {
					cas.ttdSeconds = int64(now.Sub(*call.EndedAt) / time.Second)
				}
			}
		}
		if wf, ok, err := tx.ActiveWorkflow(ctx, req.UserID, req.LeadID); err != nil {
			return err
		} else if ok {
			cas.workflowID = wf.WorkflowID
		}

		// 3. User-defined auto-actions, by priority.
		rules, err := tx.MatchingRules(ctx, req.UserID, dispositionID, name)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if err := r.applyRule(ctx, tx, req, rule, cas, now); err != nil {
				return err
			}
		}
		cas.autoActionsRun = len(rules)

		// 4. Built-in DNC trigger.
		if r.triggers.IsDNC(normalized) {
			if err := r.forceDNC(ctx, tx, req, cas, "disposition: "+name, now); err != nil {
				return err
			}
		}

		// 5. Built-in remove-everywhere trigger.
		if r.triggers.IsRemoveEverywhere(normalized) {
			nWf, err := tx.RemoveWorkflowEnrollments(ctx, req.UserID, req.LeadID, "")
			if err != nil {
				return err
			}
			nQ, err := tx.RemoveQueueEntries(ctx, req.UserID, req.LeadID)
			if err != nil {
				return err
			}
			status := leads.Status(normalized)
			if normalized == "" {
				status = leads.StatusNotInterested
			}
			if err := tx.SetLeadStatus(ctx, req.UserID, req.LeadID, status); err != nil {
				return err
			}
			cas.add(fmt.Sprintf("Removed from %d active workflows", nWf))
			cas.add(fmt.Sprintf("Removed %d queued dials", nQ))
			cas.add(fmt.Sprintf("Status set to %s", status))
		}

		// 6. Transcript sentiment scan: hostile phrase forces DNC even when
		// the disposition itself is benign.
		if phrase, ok := r.triggers.HostilePhrase(req.Transcript); ok {
			cas.add(fmt.Sprintf("Transcript triggered DNC (matched %q)", phrase))
			if err := r.forceDNC(ctx, tx, req, cas, "hostile transcript: "+phrase, now); err != nil {
				return err
			}
		}

		// 7. Pipeline auto-move from the disposition's stage mapping.
		if dispFound && disp.PipelineStage != "" {
			board, ok, err := tx.FindBoardByName(ctx, req.UserID, disp.PipelineStage)
			if err != nil {
				return err
			}
			if ok {
				mv := pipeline.Move{
					ID:          uuid.NewString(),
					UserID:      req.UserID,
					LeadID:      req.LeadID,
					BoardID:     board.ID,
					MovedByUser: false,
					MovedAt:     now,
				}
				if err := tx.MoveLeadToBoard(ctx, mv); err != nil {
					return err
				}
				cas.add("Moved to pipeline stage " + board.Name)
			}
		}

		// 8. Reachability audit event.
		meta, _ := json.Marshal(map[string]any{
			"call_outcome":  req.CallOutcome,
			"actions":       cas.actions,
			"ai_confidence": req.AIConfidence,
		})
		ev := reach.Event{
			ID:            uuid.NewString(),
			UserID:        req.UserID,
			Type:          reach.EventTypeDispositionSet,
			LeadID:        req.LeadID,
			CallID:        req.CallID,
			CampaignID:    cas.campaignID,
			DispositionID: dispositionID,
			SetBy:         req.SetBy,
			Message:       "disposition set: " + name,
			Metadata:      string(meta),
			CreatedAt:     now,
		}
		return tx.AppendReachEvent(ctx, ev)
	})
	if err != nil {
		return Result{}, err
	}

	// Post-commit collaborator calls. Failures are logged; the database
	// state is already durable and consistent.
	for _, p := range cas.post {
		if err := p.fn(ctx); err != nil {
			r.log.Error("disposition side effect failed",
				"effect", p.desc,
				"lead_id", req.LeadID,
				"err", err,
			)
		}
	}

	// 9. Metrics, best-effort.
	r.recordMetrics(ctx, req, cas, dispositionID, name, now)

	actions := cas.actions
	if actions == nil {
		actions = []string{}
	}
	return Result{Success: true, Actions: actions}, nil
}

// forceDNC upserts a dnc_list entry and flags the lead. Safe to call twice
// in one cascade (keyword trigger and transcript scan can both fire); the
// action line is only added once.
func (r *Router) forceDNC(ctx context.Context, tx Tx, req Request, cas *cascade, reason string, now time.Time) error {
	if err := tx.UpsertDNCEntry(ctx, dnc.Entry{
		UserID:      req.UserID,
		PhoneNumber: cas.before.Phone,
		Reason:      reason,
		AddedAt:     now,
	}); err != nil {
		return err
	}
	if err := tx.MarkLeadDoNotCall(ctx, req.UserID, req.LeadID); err != nil {
		return err
	}
	if !cas.dncApplied {
		cas.dncApplied = true
		cas.add("Added to DNC list")
		return tx.AppendReachEvent(ctx, reach.Event{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			Type:      reach.EventTypeDNCAdded,
			LeadID:    req.LeadID,
			CallID:    req.CallID,
			SetBy:     req.SetBy,
			Message:   reason,
			CreatedAt: now,
		})
	}
	return nil
}

func (r *Router) recordMetrics(ctx context.Context, req Request, cas *cascade, dispositionID, name string, now time.Time) {
	after, err := r.store.Snapshot(ctx, req.UserID, req.LeadID)
	if err != nil {
		r.log.Error("post-disposition snapshot failed", "lead_id", req.LeadID, "err", err)
		after = cas.before
	}

	r.recorder.RecordBestEffort(ctx, metrics.Record{
		UserID:                   req.UserID,
		LeadID:                   req.LeadID,
		DispositionID:            dispositionID,
		DispositionName:          name,
		CallID:                   req.CallID,
		CampaignID:               cas.campaignID,
		WorkflowID:               cas.workflowID,
		StatusBefore:             string(cas.before.Status),
		StatusAfter:              string(after.Status),
		PipelineStageBefore:      cas.before.PipelineBoard,
		PipelineStageAfter:       after.PipelineBoard,
		TimeToDispositionSeconds: cas.ttdSeconds,
		ActionsTriggered:         cas.actions,
		CallOutcome:              req.CallOutcome,
		HadTranscript:            req.Transcript != "",
		AutoActionsCount:         cas.autoActionsRun,
		SetBy:                    req.SetBy,
		AIConfidence:             req.AIConfidence,
		CreatedAt:                now,
	})
}
