package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// AlertService handles alert lifecycle API calls
type AlertService struct {
	client *Client
}

// TriggerAlertRequest represents a request to raise an alert
type TriggerAlertRequest struct {
	Title      string `json:"title"`
	Severity   string `json:"severity"` // info, warning, critical, emergency
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	Status     string
	Severity   string
	SourceType string
}

// List retrieves a page of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*AlertPage, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.SourceType != "" {
			query.Set("source_type", opts.SourceType)
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page AlertPage
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single alert by ID
func (s *AlertService) Get(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/"+id, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Trigger raises a new alert
func (s *AlertService) Trigger(ctx context.Context, req TriggerAlertRequest) (*Alert, error) {
	var a Alert
	if err := s.client.doRequest(ctx, "POST", "/api/v1/alerts", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Acknowledge marks a pending alert as acknowledged
func (s *AlertService) Acknowledge(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/acknowledge", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Resolve closes an alert with an optional note
func (s *AlertService) Resolve(ctx context.Context, id, note string) (*Alert, error) {
	body := map[string]string{"note": note}
	var a Alert
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/resolve", id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Escalate raises the alert's escalation level
func (s *AlertService) Escalate(ctx context.Context, id, reason string) (*Alert, error) {
	body := map[string]string{"reason": reason}
	var a Alert
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/escalate", id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Suppress silences an alert until the given time
func (s *AlertService) Suppress(ctx context.Context, id string, until time.Time) (*Alert, error) {
	body := map[string]time.Time{"until": until}
	var a Alert
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/suppress", id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Reopen returns a resolved or suppressed alert to pending
func (s *AlertService) Reopen(ctx context.Context, id, reason string) (*Alert, error) {
	body := map[string]string{"reason": reason}
	var a Alert
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/alerts/%s/reopen", id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetSummary retrieves alert counts by status
func (s *AlertService) GetSummary(ctx context.Context) (map[string]int, error) {
	var summary map[string]int
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/summary", nil, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ListActive retrieves all non-resolved alerts
func (s *AlertService) ListActive(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/active", nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
