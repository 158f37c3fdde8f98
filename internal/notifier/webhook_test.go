package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/pkg/logger"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	n := NewWebhookNotifier(config.NotifierConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second}, log)

	a := &alert.Alert{
		ID:          "alert-1",
		TenantID:    7,
		Title:       "Switch port down",
		Severity:    alert.SeverityCritical,
		Status:      alert.StatusPending,
		TriggeredAt: time.Now(),
	}

	if err := n.Notify(context.Background(), a); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if received.AlertID != a.ID {
		t.Errorf("payload alert_id = %v, want %v", received.AlertID, a.ID)
	}
	if received.TenantID != a.TenantID {
		t.Errorf("payload tenant_id = %v, want %v", received.TenantID, a.TenantID)
	}
}

func TestWebhookNotifier_EndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	n := NewWebhookNotifier(config.NotifierConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second}, log)

	err := n.Notify(context.Background(), &alert.Alert{ID: "a", TriggeredAt: time.Now()})
	if err == nil {
		t.Error("Notify() against failing endpoint returned nil error")
	}
}

func TestWebhookNotifier_NoURL(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	n := NewWebhookNotifier(config.NotifierConfig{}, log)

	if err := n.Notify(context.Background(), &alert.Alert{ID: "a", TriggeredAt: time.Now()}); err != nil {
		t.Errorf("Notify() without URL error = %v, want nil", err)
	}
}
