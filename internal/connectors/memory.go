package connectors

import (
	"context"
	"sync"
)

// Memory fakes for tests. Each records calls and can be primed to fail.

type MemoryWorkflows struct {
	mu      sync.Mutex
	Started []StartWorkflowRequest
	Err     error
}

func (m *MemoryWorkflows) StartWorkflow(ctx context.Context, req StartWorkflowRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Started = append(m.Started, req)
	return nil
}

type MemorySMS struct {
	mu     sync.Mutex
	Number string
	Sent   []SendSMSRequest
	Err    error
}

func (m *MemorySMS) ResolveSendingNumber(ctx context.Context, userID string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Number == "" {
		return "+15550000000", nil
	}
	return m.Number, nil
}

func (m *MemorySMS) SendSMS(ctx context.Context, req SendSMSRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, req)
	return nil
}

type MemoryCalendar struct {
	mu     sync.Mutex
	Booked []BookAppointmentRequest
	Err    error
}

func (m *MemoryCalendar) BookAppointment(ctx context.Context, req BookAppointmentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Booked = append(m.Booked, req)
	return nil
}
