package alert

import (
	"time"

	"github.com/probegrid/probegrid/internal/pkg/errors"
)

// Alert represents a monitoring alert raised against a device or service.
// An alert is created in StatusPending and moves through the lifecycle only
// via the named actions below; it is never hard-deleted.
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

// Alert severity levels
const (
	SeverityInfo      = "info"
	SeverityWarning   = "warning"
	SeverityCritical  = "critical"
	SeverityEmergency = "emergency"
)

// Alert status
const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
	StatusEscalated    = "escalated"
	StatusSuppressed   = "suppressed"
)

// ValidSeverity checks if the severity is a known level
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical, SeverityEmergency:
		return true
	default:
		return false
	}
}

// Filter contains alert filtering options
type Filter struct {
	Status     string
	Severity   string
	SourceType string
}

// IsActive reports whether the alert is in any non-resolved state.
func (a *Alert) IsActive() bool {
	return a.Status != StatusResolved
}

// NeedsNotification reports whether the alert has never been notified and is
// in a state that warrants one.
func (a *Alert) NeedsNotification() bool {
	return a.NotificationCount == 0 &&
		(a.Status == StatusPending || a.Status == StatusEscalated)
}

// Acknowledge transitions the alert from pending to acknowledged.
func (a *Alert) Acknowledge(by string, now time.Time) error {
	if a.Status != StatusPending {
		return errors.InvalidTransition("alert can only be acknowledged while pending, current status: " + a.Status)
	}
	a.Status = StatusAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = by
	return nil
}

// Resolve transitions the alert to resolved from pending, acknowledged or
// escalated.
func (a *Alert) Resolve(by, note string, now time.Time) error {
	switch a.Status {
	case StatusPending, StatusAcknowledged, StatusEscalated:
	default:
		return errors.InvalidTransition("alert cannot be resolved from status: " + a.Status)
	}
	a.Status = StatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = by
	a.ResolutionNote = note
	return nil
}

// Escalate transitions the alert to escalated and increments the escalation
// level. The level is a lifetime counter: it starts at 0, the first
// escalation sets it to 1, and reopening never resets it.
func (a *Alert) Escalate(reason string, now time.Time) error {
	switch a.Status {
	case StatusPending, StatusAcknowledged:
	default:
		return errors.InvalidTransition("alert cannot be escalated from status: " + a.Status)
	}
	a.Status = StatusEscalated
	a.EscalatedAt = &now
	a.EscalationReason = reason
	a.EscalationLevel++
	return nil
}

// Suppress transitions the alert to suppressed until the given time. Valid
// from any active state.
func (a *Alert) Suppress(until time.Time, now time.Time) error {
	if a.Status == StatusResolved {
		return errors.InvalidTransition("resolved alerts cannot be suppressed")
	}
	a.Status = StatusSuppressed
	a.SuppressedUntil = &until
	return nil
}

// Reopen transitions a resolved or suppressed alert back to pending. The
// resolution fields are cleared but the resolution note is kept as history,
// and the escalation level carries over.
func (a *Alert) Reopen(now time.Time) error {
	switch a.Status {
	case StatusResolved, StatusSuppressed:
	default:
		return errors.InvalidTransition("alert cannot be reopened from status: " + a.Status)
	}
	a.Status = StatusPending
	a.ResolvedAt = nil
	a.ResolvedBy = ""
	a.SuppressedUntil = nil
	return nil
}

// RecordNotification increments the notification counter. Idempotency is the
// caller's responsibility; this always increments.
func (a *Alert) RecordNotification(now time.Time) {
	a.NotificationCount++
	a.LastNotificationAt = &now
}
