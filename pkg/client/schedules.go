package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ScheduleService handles polling schedule API calls
type ScheduleService struct {
	client *Client
}

// CreateScheduleRequest represents a request to register a schedule
type CreateScheduleRequest struct {
	Name            string `json:"name"`
	ScheduleType    string `json:"schedule_type"` // interval, manual
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
}

// ScheduleListOptions contains options for listing schedules
type ScheduleListOptions struct {
	ScheduleType string
	Enabled      *bool
}

// List retrieves polling schedules
func (s *ScheduleService) List(ctx context.Context, opts *ScheduleListOptions) ([]PollingSchedule, error) {
	query := url.Values{}
	if opts != nil {
		if opts.ScheduleType != "" {
			query.Set("schedule_type", opts.ScheduleType)
		}
		if opts.Enabled != nil {
			query.Set("enabled", strconv.FormatBool(*opts.Enabled))
		}
	}

	path := "/api/v1/schedules"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var schedules []PollingSchedule
	if err := s.client.doRequest(ctx, "GET", path, nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Get retrieves a single schedule by ID
func (s *ScheduleService) Get(ctx context.Context, id string) (*PollingSchedule, error) {
	var ps PollingSchedule
	if err := s.client.doRequest(ctx, "GET", "/api/v1/schedules/"+id, nil, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// Create registers a new polling schedule
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*PollingSchedule, error) {
	var ps PollingSchedule
	if err := s.client.doRequest(ctx, "POST", "/api/v1/schedules", req, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// Delete removes a polling schedule
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, "DELETE", "/api/v1/schedules/"+id, nil, nil)
}

// Enable turns a schedule on
func (s *ScheduleService) Enable(ctx context.Context, id string) (*PollingSchedule, error) {
	var ps PollingSchedule
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/schedules/%s/enable", id), nil, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// Disable turns a schedule off
func (s *ScheduleService) Disable(ctx context.Context, id string) (*PollingSchedule, error) {
	var ps PollingSchedule
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/schedules/%s/disable", id), nil, &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// AcquireLock claims a schedule for an executor node and returns the token
// proving ownership
func (s *ScheduleService) AcquireLock(ctx context.Context, id, nodeID string) (string, error) {
	body := map[string]string{"node_id": nodeID}
	var resp map[string]string
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/schedules/%s/lock", id), body, &resp); err != nil {
		return "", err
	}
	return resp["lock_token"], nil
}

// ReleaseLock releases a schedule claimed earlier with the token
func (s *ScheduleService) ReleaseLock(ctx context.Context, id, lockToken string) error {
	body := map[string]string{"lock_token": lockToken}
	return s.client.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/schedules/%s/lock", id), body, nil)
}
