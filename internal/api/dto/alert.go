package dto

import "time"

// Alert creation and list bodies reuse the service input types directly;
// this package holds the lifecycle action bodies.

// ResolveAlertRequest carries an optional resolution note
type ResolveAlertRequest struct {
	Note string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// EscalateAlertRequest carries the escalation reason
type EscalateAlertRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// SuppressAlertRequest carries the suppression deadline
type SuppressAlertRequest struct {
	Until time.Time `json:"until" validate:"required"`
}

// ReopenAlertRequest carries an optional reopen reason
type ReopenAlertRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
