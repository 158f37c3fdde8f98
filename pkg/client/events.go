package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// EventService handles event log API calls
type EventService struct {
	client *Client
}

// RecordEventRequest represents a request to append an event
type RecordEventRequest struct {
	Category   string `json:"category"` // check, alert, agent, poller, device, system, audit
	Severity   int    `json:"severity"` // 0 (debug) through 4 (critical)
	EventType  string `json:"event_type"`
	Message    string `json:"message"`
	DeviceUID  string `json:"device_uid,omitempty"`
	AgentUID   string `json:"agent_uid,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

// EventListOptions contains options for listing events
type EventListOptions struct {
	ListOptions
	Category    string
	MinSeverity *int
	EventType   string
	DeviceUID   string
	AgentUID    string
	Since       *time.Time
	Until       *time.Time
}

// List retrieves a page of events, newest first
func (s *EventService) List(ctx context.Context, opts *EventListOptions) (*EventPage, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Category != "" {
			query.Set("category", opts.Category)
		}
		if opts.MinSeverity != nil {
			query.Set("min_severity", strconv.Itoa(*opts.MinSeverity))
		}
		if opts.EventType != "" {
			query.Set("event_type", opts.EventType)
		}
		if opts.DeviceUID != "" {
			query.Set("device_uid", opts.DeviceUID)
		}
		if opts.AgentUID != "" {
			query.Set("agent_uid", opts.AgentUID)
		}
		if opts.Since != nil {
			query.Set("since", opts.Since.Format(time.RFC3339))
		}
		if opts.Until != nil {
			query.Set("until", opts.Until.Format(time.RFC3339))
		}
	}

	path := "/api/v1/events"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page EventPage
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single event by ID
func (s *EventService) Get(ctx context.Context, id string) (*Event, error) {
	var e Event
	if err := s.client.doRequest(ctx, "GET", "/api/v1/events/"+id, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Record appends a new event to the log
func (s *EventService) Record(ctx context.Context, req RecordEventRequest) (*Event, error) {
	var e Event
	if err := s.client.doRequest(ctx, "POST", "/api/v1/events", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListRecent retrieves events from the last hour
func (s *EventService) ListRecent(ctx context.Context, opts *ListOptions) (*EventPage, error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := "/api/v1/events/recent"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page EventPage
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
