package dispositions

import (
	"context"
	"fmt"
	"time"

	"dialer-crm/internal/connectors"
	"dialer-crm/internal/pipeline"

	"github.com/google/uuid"
)

// applyRule executes one matched auto-action inside the cascade transaction.
// Database mutations happen here; collaborator calls are queued on the
// cascade and run only after commit.
func (r *Router) applyRule(ctx context.Context, tx Tx, req Request, rule AutoActionRule, cas *cascade, now time.Time) error {
	switch rule.Action {
	case ActionRemoveAllCampaigns:
		n, err := tx.RemoveWorkflowEnrollments(ctx, req.UserID, req.LeadID, "")
		if err != nil {
			return err
		}
		if _, err := tx.RemoveQueueEntries(ctx, req.UserID, req.LeadID); err != nil {
			return err
		}
		cas.add(fmt.Sprintf("Removed from %d campaigns", n))
		return nil

	case ActionRemoveFromCampaign:
		cfg, err := decodeConfig[RemoveFromCampaignConfig](rule)
		if err != nil {
			return err
		}
		if _, err := tx.RemoveWorkflowEnrollments(ctx, req.UserID, req.LeadID, cfg.CampaignID); err != nil {
			return err
		}
		cas.add("Removed from campaign " + cfg.CampaignID)
		return nil

	case ActionMoveToStage:
		cfg, err := decodeConfig[MoveToStageConfig](rule)
		if err != nil {
			return err
		}
		board, ok, err := tx.FindBoardByID(ctx, req.UserID, cfg.TargetStageID)
		if err != nil {
			return err
		}
		if !ok {
			// Stale rule pointing at a deleted board; skip rather than
			// fail every disposition carrying this rule.
			r.log.Warn("auto-action target board missing",
				"rule_id", rule.ID, "board_id", cfg.TargetStageID)
			return nil
		}
		if err := tx.MoveLeadToBoard(ctx, pipeline.Move{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			LeadID:      req.LeadID,
			BoardID:     board.ID,
			MovedByUser: false,
			MovedAt:     now,
		}); err != nil {
			return err
		}
		cas.add("Moved to pipeline stage " + board.Name)
		return nil

	case ActionAddToDNC:
		return r.forceDNC(ctx, tx, req, cas, "auto-action rule "+rule.ID, now)

	case ActionStartWorkflow:
		cfg, err := decodeConfig[StartWorkflowConfig](rule)
		if err != nil {
			return err
		}
		if r.conn.Workflows == nil {
			r.log.Warn("start_workflow action skipped, no executor configured", "rule_id", rule.ID)
			return nil
		}
		cas.add("Started workflow " + cfg.WorkflowID)
		cas.later("start_workflow", func(ctx context.Context) error {
			return r.conn.Workflows.StartWorkflow(ctx, connectors.StartWorkflowRequest{
				UserID:     req.UserID,
				LeadID:     req.LeadID,
				WorkflowID: cfg.WorkflowID,
				CampaignID: cfg.CampaignID,
			})
		})
		return nil

	case ActionSendSMS:
		cfg, err := decodeConfig[SendSMSConfig](rule)
		if err != nil {
			return err
		}
		if r.conn.SMS == nil {
			r.log.Warn("send_sms action skipped, no sender configured", "rule_id", rule.ID)
			return nil
		}
		to := cas.before.Phone
		cas.add("Sent SMS to " + to)
		cas.later("send_sms", func(ctx context.Context) error {
			from, err := r.conn.SMS.ResolveSendingNumber(ctx, req.UserID)
			if err != nil {
				return err
			}
			return r.conn.SMS.SendSMS(ctx, connectors.SendSMSRequest{
				UserID: req.UserID,
				To:     to,
				From:   from,
				Body:   cfg.Body,
				LeadID: req.LeadID,
			})
		})
		return nil

	case ActionScheduleCallback:
		cfg, err := decodeConfig[ScheduleCallbackConfig](rule)
		if err != nil {
			return err
		}
		at := now.Add(time.Duration(cfg.DelayHours) * time.Hour)
		if err := tx.ScheduleCallback(ctx, req.UserID, req.LeadID, at); err != nil {
			return err
		}
		cas.add(fmt.Sprintf("Callback scheduled in %d hours", cfg.DelayHours))
		return nil

	case ActionBookAppointment:
		cfg, err := decodeConfig[BookAppointmentConfig](rule)
		if err != nil {
			return err
		}
		appt := Appointment{
			ID:              uuid.NewString(),
			UserID:          req.UserID,
			LeadID:          req.LeadID,
			Date:            cfg.Date,
			Time:            cfg.Time,
			DurationMinutes: cfg.DurationMinutes,
			Title:           cfg.Title,
			CreatedAt:       now,
		}
		if err := tx.InsertAppointment(ctx, appt); err != nil {
			return err
		}
		cas.add(fmt.Sprintf("Appointment booked for %s %s", cfg.Date, cfg.Time))
		if r.conn.Calendar != nil {
			cas.later("book_appointment", func(ctx context.Context) error {
				return r.conn.Calendar.BookAppointment(ctx, connectors.BookAppointmentRequest{
					UserID:          req.UserID,
					Date:            cfg.Date,
					Time:            cfg.Time,
					DurationMinutes: cfg.DurationMinutes,
					AttendeeEmail:   cfg.AttendeeEmail,
					Title:           cfg.Title,
				})
			})
		}
		return nil

	default:
		return fmt.Errorf("%w: rule %s has action %q", ErrUnknownAction, rule.ID, rule.Action)
	}
}
