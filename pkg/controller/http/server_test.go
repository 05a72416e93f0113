package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// mockEventHandler signals over a channel when an event is delivered, since
// dispatch happens after the HTTP response is written
type mockEventHandler struct {
	received chan events.CloudWatchEvent
	err      error
}

func newMockEventHandler() *mockEventHandler {
	return &mockEventHandler{received: make(chan events.CloudWatchEvent, 1)}
}

func (m *mockEventHandler) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	m.received <- event
	return m.err
}

func newTestServer(t *testing.T, opts ...controller.Option) *controller.Server {
	t.Helper()
	server, err := controller.NewServer(context.Background(), opts...)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, controller.WithAddr("localhost:0"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var status model.HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "healthy" {
		t.Errorf("Status = %v, want healthy", status.Status)
	}

	if status.Service != "drover" {
		t.Errorf("Service = %v, want drover", status.Service)
	}

	if status.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestEventEndpoint_Dispatch(t *testing.T) {
	handler := newMockEventHandler()
	server := newTestServer(t, controller.WithFunction("update-route53-host-records", handler))

	event := `{
		"detail-type": "EC2 Instance State-change Notification",
		"source": "aws.ec2",
		"account": "123456789012",
		"region": "us-east-1",
		"detail": {"instance-id": "i-0123", "state": "running"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/functions/update-route53-host-records/events", strings.NewReader(event))
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Status code = %v, want %v (body: %s)", w.Code, http.StatusAccepted, w.Body.String())
	}

	var resp struct {
		Status     string `json:"status"`
		DispatchID string `json:"dispatch_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "accepted" {
		t.Errorf("Status = %v, want accepted", resp.Status)
	}
	if resp.DispatchID == "" {
		t.Error("Dispatch ID should not be empty")
	}

	select {
	case got := <-handler.received:
		if got.DetailType != "EC2 Instance State-change Notification" {
			t.Errorf("DetailType = %v", got.DetailType)
		}
		if got.AccountID != "123456789012" {
			t.Errorf("AccountID = %v", got.AccountID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not receive dispatched event")
	}
}

func TestEventEndpoint_UnknownFunction(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/functions/no-such-function/events", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestEventEndpoint_InvalidJSON(t *testing.T) {
	handler := newMockEventHandler()
	server := newTestServer(t, controller.WithFunction("fn", handler))

	req := httptest.NewRequest(http.MethodPost, "/functions/fn/events", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusBadRequest)
	}
}
