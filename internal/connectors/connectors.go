package connectors

import "context"

// Collaborating serverless functions, consumed only through these interfaces.
//
// Rules:
// - No direct HTTP calls outside connector adapters.
// - All requests are user-scoped (user_id required).
// - Connector calls run after the cascade transaction commits; implementations
//   should be idempotent where the upstream function allows it.

// WorkflowExecutor enrolls a lead in a nurture workflow.
type WorkflowExecutor interface {
	StartWorkflow(ctx context.Context, req StartWorkflowRequest) error
}

type StartWorkflowRequest struct {
	UserID     string `json:"userId"`
	LeadID     string `json:"leadId"`
	WorkflowID string `json:"workflowId"`
	CampaignID string `json:"campaignId,omitempty"`
}

// SMSSender resolves an active sending number and dispatches a message.
type SMSSender interface {
	ResolveSendingNumber(ctx context.Context, userID string) (string, error)
	SendSMS(ctx context.Context, req SendSMSRequest) error
}

type SendSMSRequest struct {
	UserID string `json:"userId"`
	To     string `json:"to"`
	From   string `json:"from"`
	Body   string `json:"body"`
	LeadID string `json:"lead_id"`
}

// CalendarClient syncs a booked appointment to the user's external calendar.
type CalendarClient interface {
	BookAppointment(ctx context.Context, req BookAppointmentRequest) error
}

type BookAppointmentRequest struct {
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	AttendeeName    string `json:"attendee_name"`
	AttendeeEmail   string `json:"attendee_email,omitempty"`
	Title           string `json:"title"`
}

// Bundle groups the collaborators for dependency injection. Nil fields
// disable the corresponding auto-action at runtime.
type Bundle struct {
	Workflows WorkflowExecutor
	SMS       SMSSender
	Calendar  CalendarClient
}
