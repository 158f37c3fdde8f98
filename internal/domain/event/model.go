package event

import (
	"time"
)

// Event is one immutable entry in the audit trail. Events are only ever
// appended; there is no update or delete operation anywhere in the system,
// and retention is handled outside the core.
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

// Event categories
const (
	CategoryCheck  = "check"
	CategoryAlert  = "alert"
	CategoryAgent  = "agent"
	CategoryPoller = "poller"
	CategoryDevice = "device"
	CategorySystem = "system"
	CategoryAudit  = "audit"
)

// Severity scale, 0 (debug) through 4 (critical)
const (
	SeverityDebug    = 0
	SeverityInfo     = 1
	SeverityWarning  = 2
	SeverityError    = 3
	SeverityCritical = 4
)

// ValidCategory checks if the category is known
func ValidCategory(c string) bool {
	switch c {
	case CategoryCheck, CategoryAlert, CategoryAgent, CategoryPoller,
		CategoryDevice, CategorySystem, CategoryAudit:
		return true
	default:
		return false
	}
}

// ValidSeverity checks if the severity is in range
func ValidSeverity(s int) bool {
	return s >= SeverityDebug && s <= SeverityCritical
}

var severityLabels = map[int]string{
	SeverityDebug:    "debug",
	SeverityInfo:     "info",
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
}

var severityColors = map[int]string{
	SeverityDebug:    "gray",
	SeverityInfo:     "blue",
	SeverityWarning:  "yellow",
	SeverityError:    "orange",
	SeverityCritical: "red",
}

var categoryLabels = map[string]string{
	CategoryCheck:  "Check",
	CategoryAlert:  "Alert",
	CategoryAgent:  "Agent",
	CategoryPoller: "Poller",
	CategoryDevice: "Device",
	CategorySystem: "System",
	CategoryAudit:  "Audit",
}

// SeverityLabel returns the display name for the event's severity
func (e *Event) SeverityLabel() string {
	if label, ok := severityLabels[e.Severity]; ok {
		return label
	}
	return "unknown"
}

// SeverityColor returns the display color for the event's severity
func (e *Event) SeverityColor() string {
	if color, ok := severityColors[e.Severity]; ok {
		return color
	}
	return "gray"
}

// CategoryLabel returns the display name for the event's category
func (e *Event) CategoryLabel() string {
	if label, ok := categoryLabels[e.Category]; ok {
		return label
	}
	return e.Category
}

// Filter contains event filtering options. Zero values are ignored;
// MinSeverity uses a pointer so severity 0 can be filtered explicitly.
type Filter struct {
	Category    string
	MinSeverity *int
	EventType   string
	DeviceUID   string
	AgentUID    string
	Since       *time.Time
	Until       *time.Time
}
