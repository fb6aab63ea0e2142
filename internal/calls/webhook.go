package calls

import (
	"errors"
	"strings"
)

// CallEndedEvent is the provider-agnostic call-ended webhook payload posted
// by the AI dialer when a call finishes with an analysis result.
//
// Keep it minimal and provider-adapter-only. Business logic (the disposition
// cascade) is not made here.

type CallEndedEvent struct {
	CallID string `json:"call_id"`
	UserID string `json:"user_id"`
	LeadID string `json:"lead_id"`

	Disposition        string   `json:"disposition"`
	DispositionID      string   `json:"disposition_id,omitempty"`
	Outcome            string   `json:"outcome,omitempty"`
	Transcript         string   `json:"transcript,omitempty"`
	AnalysisConfidence *float64 `json:"analysis_confidence,omitempty"`

	// RawPayload is optional for debugging/audit; store as JSON string.
	RawPayload string `json:"raw_payload,omitempty"`
}

func (e CallEndedEvent) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return errors.New("calls: user_id required")
	}
	if strings.TrimSpace(e.LeadID) == "" {
		return errors.New("calls: lead_id required")
	}
	if strings.TrimSpace(e.Disposition) == "" && strings.TrimSpace(e.DispositionID) == "" {
		return errors.New("calls: disposition or disposition_id required")
	}
	return nil
}
