package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWorkflowHTTP_PostsActionEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	w := NewWorkflowHTTP(srv.URL)
	err := w.StartWorkflow(context.Background(), StartWorkflowRequest{
		UserID: "u", LeadID: "l", WorkflowID: "wf", CampaignID: "c",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["action"] != "start_workflow" || got["leadId"] != "l" || got["workflowId"] != "wf" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestHTTPClient_SurfacesNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, 500)
	}))
	defer srv.Close()

	s := NewSMSHTTP(srv.URL)
	if err := s.SendSMS(context.Background(), SendSMSRequest{UserID: "u", To: "+1", From: "+2", Body: "hi"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSMSHTTP_ResolveSendingNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["action"] != "get_sending_number" {
			t.Errorf("unexpected action: %v", body["action"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"number": "+15551234567"})
	}))
	defer srv.Close()

	s := NewSMSHTTP(srv.URL)
	num, err := s.ResolveSendingNumber(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if num != "+15551234567" {
		t.Fatalf("unexpected number: %q", num)
	}
}

func TestHTTPClient_UnconfiguredURL(t *testing.T) {
	w := NewWorkflowHTTP("")
	if err := w.StartWorkflow(context.Background(), StartWorkflowRequest{}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
