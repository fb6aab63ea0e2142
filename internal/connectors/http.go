package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient invokes sibling serverless functions with JSON bodies shaped as
// {action: "...", ...fields}. One client per function URL.

type HTTPClient struct {
	url    string
	client *http.Client
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var ErrNotConfigured = errors.New("connectors: function URL not configured")

func (c *HTTPClient) post(ctx context.Context, body map[string]any) error {
	if c == nil || c.url == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Bounded read: error bodies are small JSON blobs.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("connectors: %s returned %d: %s", c.url, resp.StatusCode, string(b))
	}
	return nil
}

// WorkflowHTTP calls the workflow-executor function.
type WorkflowHTTP struct{ *HTTPClient }

func NewWorkflowHTTP(url string) WorkflowHTTP { return WorkflowHTTP{NewHTTPClient(url)} }

func (w WorkflowHTTP) StartWorkflow(ctx context.Context, req StartWorkflowRequest) error {
	return w.post(ctx, map[string]any{
		"action":     "start_workflow",
		"userId":     req.UserID,
		"leadId":     req.LeadID,
		"workflowId": req.WorkflowID,
		"campaignId": req.CampaignID,
	})
}

// SMSHTTP calls the sms-messaging function.
type SMSHTTP struct{ *HTTPClient }

func NewSMSHTTP(url string) SMSHTTP { return SMSHTTP{NewHTTPClient(url)} }

func (s SMSHTTP) ResolveSendingNumber(ctx context.Context, userID string) (string, error) {
	if s.HTTPClient == nil || s.url == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]any{"action": "get_sending_number", "userId": userID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("connectors: sending number lookup returned %d", resp.StatusCode)
	}

	var out struct {
		Number string `json:"number"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out); err != nil {
		return "", err
	}
	if out.Number == "" {
		return "", errors.New("connectors: no active sending number")
	}
	return out.Number, nil
}

func (s SMSHTTP) SendSMS(ctx context.Context, req SendSMSRequest) error {
	return s.post(ctx, map[string]any{
		"action":  "send_sms",
		"userId":  req.UserID,
		"to":      req.To,
		"from":    req.From,
		"body":    req.Body,
		"lead_id": req.LeadID,
	})
}

// CalendarHTTP calls the calendar-integration function.
type CalendarHTTP struct{ *HTTPClient }

func NewCalendarHTTP(url string) CalendarHTTP { return CalendarHTTP{NewHTTPClient(url)} }

func (c CalendarHTTP) BookAppointment(ctx context.Context, req BookAppointmentRequest) error {
	return c.post(ctx, map[string]any{
		"action":           "book_appointment",
		"userId":           req.UserID,
		"date":             req.Date,
		"time":             req.Time,
		"duration_minutes": req.DurationMinutes,
		"attendee_name":    req.AttendeeName,
		"attendee_email":   req.AttendeeEmail,
		"title":            req.Title,
	})
}
