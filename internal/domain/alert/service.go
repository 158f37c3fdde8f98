package alert

import (
	"context"
	"time"

	"github.com/probegrid/probegrid/internal/domain/actor"
)

// TriggerInput carries the fields needed to raise a new alert
type TriggerInput struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	Severity   string `json:"severity" validate:"required,oneof=info warning critical emergency"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
}

// Service defines the interface for alert business logic. All mutations go
// through named lifecycle actions; there is no free-form update and no
// delete. Role checks happen before the state machine is consulted.
type Service interface {
	// Trigger raises a new alert in pending status
	Trigger(ctx context.Context, act actor.Actor, input TriggerInput) (*Alert, error)

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, act actor.Actor, id string) (*Alert, error)

	// List retrieves alerts with filters and pagination
	List(ctx context.Context, act actor.Actor, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// GetSummary gets alert counts by status
	GetSummary(ctx context.Context, act actor.Actor) (map[string]int, error)

	// Acknowledge marks a pending alert as acknowledged by the actor
	Acknowledge(ctx context.Context, act actor.Actor, id string) (*Alert, error)

	// Resolve closes an alert with an optional resolution note
	Resolve(ctx context.Context, act actor.Actor, id string, note string) (*Alert, error)

	// Escalate raises the alert's escalation level
	Escalate(ctx context.Context, act actor.Actor, id string, reason string) (*Alert, error)

	// Suppress silences an alert until the given time
	Suppress(ctx context.Context, act actor.Actor, id string, until time.Time) (*Alert, error)

	// Reopen returns a resolved or suppressed alert to pending
	Reopen(ctx context.Context, act actor.Actor, id string, reason string) (*Alert, error)

	// SendNotification records that a notification was dispatched
	SendNotification(ctx context.Context, act actor.Actor, id string) (*Alert, error)

	// ListPending returns auto-escalation candidates: pending alerts
	// triggered before the cutoff.
	ListPending(ctx context.Context, act actor.Actor, triggeredBefore time.Time) ([]*Alert, error)

	// ListActive returns all non-resolved alerts
	ListActive(ctx context.Context, act actor.Actor) ([]*Alert, error)

	// ListNeedingNotification returns alerts that have never been notified
	ListNeedingNotification(ctx context.Context, act actor.Actor) ([]*Alert, error)
}
