package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// CheckService handles service check API calls
type CheckService struct {
	client *Client
}

// CreateCheckRequest represents a request to register a check
type CreateCheckRequest struct {
	Name            string `json:"name"`
	CheckType       string `json:"check_type"` // ping, http, tcp, snmp, grpc, dns, custom
	Target          string `json:"target"`
	AgentID         string `json:"agent_id,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	Retries         int    `json:"retries,omitempty"`
}

// UpdateCheckRequest represents a request to update a check
type UpdateCheckRequest struct {
	Name            *string `json:"name,omitempty"`
	Target          *string `json:"target,omitempty"`
	AgentID         *string `json:"agent_id,omitempty"`
	IntervalSeconds *int    `json:"interval_seconds,omitempty"`
	TimeoutSeconds  *int    `json:"timeout_seconds,omitempty"`
	Retries         *int    `json:"retries,omitempty"`
}

// CheckResultRequest represents the outcome of one check run
type CheckResultRequest struct {
	Result         string `json:"result"`
	ResponseTimeMS *int64 `json:"response_time_ms,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CheckListOptions contains options for listing checks
type CheckListOptions struct {
	CheckType string
	Enabled   *bool
	AgentID   string
}

// List retrieves service checks
func (s *CheckService) List(ctx context.Context, opts *CheckListOptions) ([]ServiceCheck, error) {
	query := url.Values{}
	if opts != nil {
		if opts.CheckType != "" {
			query.Set("check_type", opts.CheckType)
		}
		if opts.Enabled != nil {
			query.Set("enabled", strconv.FormatBool(*opts.Enabled))
		}
		if opts.AgentID != "" {
			query.Set("agent_id", opts.AgentID)
		}
	}

	path := "/api/v1/checks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var checks []ServiceCheck
	if err := s.client.doRequest(ctx, "GET", path, nil, &checks); err != nil {
		return nil, err
	}
	return checks, nil
}

// Get retrieves a single check by ID
func (s *CheckService) Get(ctx context.Context, id string) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "GET", "/api/v1/checks/"+id, nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Create registers a new service check
func (s *CheckService) Create(ctx context.Context, req CreateCheckRequest) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "POST", "/api/v1/checks", req, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Update modifies a check's configuration
func (s *CheckService) Update(ctx context.Context, id string, req UpdateCheckRequest) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "PUT", "/api/v1/checks/"+id, req, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Delete removes a service check
func (s *CheckService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", "/api/v1/checks/"+id, nil, nil)
}

// Enable turns a check on
func (s *CheckService) Enable(ctx context.Context, id string) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/checks/%s/enable", id), nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Disable turns a check off
func (s *CheckService) Disable(ctx context.Context, id string) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/checks/%s/disable", id), nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// RecordResult stores a run outcome, typically from an external agent
func (s *CheckService) RecordResult(ctx context.Context, id string, req CheckResultRequest) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/checks/%s/result", id), req, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ResetFailures clears a check's consecutive-failure counter
func (s *CheckService) ResetFailures(ctx context.Context, id string) (*ServiceCheck, error) {
	var sc ServiceCheck
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/checks/%s/reset-failures", id), nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListFailing retrieves checks with at least one consecutive failure
func (s *CheckService) ListFailing(ctx context.Context) ([]ServiceCheck, error) {
	var checks []ServiceCheck
	if err := s.client.doRequest(ctx, "GET", "/api/v1/checks/failing", nil, &checks); err != nil {
		return nil, err
	}
	return checks, nil
}
