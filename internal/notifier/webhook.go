package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/pkg/logger"
)

// Notifier delivers alert notifications. The core only records that a
// notification happened; delivery details live behind this interface.
type Notifier interface {
	Notify(ctx context.Context, a *alert.Alert) error
}

// WebhookNotifier POSTs alert payloads to a configured endpoint
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

// NewWebhookNotifier creates a webhook notifier. An empty URL yields a
// notifier that drops everything, so callers never need a nil check.
func NewWebhookNotifier(cfg config.NotifierConfig, log *logger.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

type webhookPayload struct {
	AlertID         string `json:"alert_id"`
	TenantID        int64  `json:"tenant_id"`
	Title           string `json:"title"`
	Severity        string `json:"severity"`
	Status          string `json:"status"`
	EscalationLevel int    `json:"escalation_level"`
	SourceType      string `json:"source_type,omitempty"`
	SourceName      string `json:"source_name,omitempty"`
	TriggeredAt     string `json:"triggered_at"`
}

// Notify delivers one alert to the webhook endpoint
func (n *WebhookNotifier) Notify(ctx context.Context, a *alert.Alert) error {
	if n.url == "" {
		n.logger.With("alert_id", a.ID).Debug("No webhook configured, dropping notification")
		return nil
	}

	payload := webhookPayload{
		AlertID:         a.ID,
		TenantID:        a.TenantID,
		Title:           a.Title,
		Severity:        a.Severity,
		Status:          a.Status,
		EscalationLevel: a.EscalationLevel,
		SourceType:      a.SourceType,
		SourceName:      a.SourceName,
		TriggeredAt:     a.TriggeredAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	n.logger.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"severity": a.Severity,
	}).Info("Alert notification delivered")

	return nil
}
