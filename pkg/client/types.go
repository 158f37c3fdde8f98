package client

import "time"

// Alert represents an alert in API responses
type Alert struct {
	ID                 string     `json:"id"`
	TenantID           int64      `json:"tenant_id"`
	Title              string     `json:"title"`
	Severity           string     `json:"severity"`
	Status             string     `json:"status"`
	SourceType         string     `json:"source_type,omitempty"`
	SourceID           string     `json:"source_id,omitempty"`
	SourceName         string     `json:"source_name,omitempty"`
	TriggeredAt        time.Time  `json:"triggered_at"`
	AcknowledgedAt     *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy     string     `json:"acknowledged_by,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy         string     `json:"resolved_by,omitempty"`
	ResolutionNote     string     `json:"resolution_note,omitempty"`
	EscalatedAt        *time.Time `json:"escalated_at,omitempty"`
	EscalationLevel    int        `json:"escalation_level"`
	EscalationReason   string     `json:"escalation_reason,omitempty"`
	SuppressedUntil    *time.Time `json:"suppressed_until,omitempty"`
	NotificationCount  int        `json:"notification_count"`
	LastNotificationAt *time.Time `json:"last_notification_at,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at,omitempty"`
}

// ServiceCheck represents a service check in API responses
type ServiceCheck struct {
	ID                  string     `json:"id"`
	TenantID            int64      `json:"tenant_id"`
	Name                string     `json:"name"`
	CheckType           string     `json:"check_type"`
	Target              string     `json:"target"`
	AgentID             string     `json:"agent_id,omitempty"`
	Enabled             bool       `json:"enabled"`
	IntervalSeconds     int        `json:"interval_seconds"`
	TimeoutSeconds      int        `json:"timeout_seconds"`
	Retries             int        `json:"retries"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastCheckAt         *time.Time `json:"last_check_at,omitempty"`
	LastResult          string     `json:"last_result,omitempty"`
	LastResponseTimeMS  *int64     `json:"last_response_time_ms,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`
}

// PollingSchedule represents a polling schedule in API responses
type PollingSchedule struct {
	ID                  string     `json:"id"`
	TenantID            int64      `json:"tenant_id"`
	Name                string     `json:"name"`
	ScheduleType        string     `json:"schedule_type"`
	IntervalSeconds     int        `json:"interval_seconds"`
	Enabled             bool       `json:"enabled"`
	LastExecutedAt      *time.Time `json:"last_executed_at,omitempty"`
	ExecutionCount      int64      `json:"execution_count"`
	LastResult          string     `json:"last_result,omitempty"`
	LastCheckCount      int        `json:"last_check_count"`
	LastSuccessCount    int        `json:"last_success_count"`
	LastFailureCount    int        `json:"last_failure_count"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LockToken           string     `json:"lock_token,omitempty"`
	LockedAt            *time.Time `json:"locked_at,omitempty"`
	LockedBy            string     `json:"locked_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`
}

// Event represents an event log entry in API responses
type Event struct {
	ID         string    `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	Category   string    `json:"category"`
	Severity   int       `json:"severity"`
	EventType  string    `json:"event_type"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
	DeviceUID  string    `json:"device_uid,omitempty"`
	AgentUID   string    `json:"agent_uid,omitempty"`
	SourceType string    `json:"source_type,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`
	SourceName string    `json:"source_name,omitempty"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	TargetName string    `json:"target_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListOptions contains common pagination options
type ListOptions struct {
	Page     int
	PageSize int
}

// AlertPage is a paginated list of alerts
type AlertPage struct {
	Data       []Alert `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}

// EventPage is a paginated list of events
type EventPage struct {
	Data       []Event `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}
