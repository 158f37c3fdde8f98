package check

import (
	"context"
	"time"

	"github.com/probegrid/probegrid/internal/domain/actor"
)

// CreateInput carries the fields for registering a new service check.
// Interval, timeout and retries fall back to package defaults when zero.
type CreateInput struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	CheckType       string `json:"check_type" validate:"required,oneof=ping http tcp snmp grpc dns custom"`
	Target          string `json:"target" validate:"required"`
	AgentID         string `json:"agent_id,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty" validate:"omitempty,min=1"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Retries         int    `json:"retries,omitempty" validate:"omitempty,min=0"`
}

// UpdateInput carries the mutable fields of a service check. Nil pointers
// leave the stored value untouched.
type UpdateInput struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Target          *string `json:"target,omitempty"`
	AgentID         *string `json:"agent_id,omitempty"`
	IntervalSeconds *int    `json:"interval_seconds,omitempty" validate:"omitempty,min=1"`
	TimeoutSeconds  *int    `json:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Retries         *int    `json:"retries,omitempty" validate:"omitempty,min=0"`
}

// ResultInput carries the outcome of one check run
type ResultInput struct {
	Result         string `json:"result" validate:"required"`
	ResponseTimeMS *int64 `json:"response_time_ms,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Service defines the interface for service check business logic
type Service interface {
	// Create registers a new service check with defaults applied
	Create(ctx context.Context, act actor.Actor, input CreateInput) (*ServiceCheck, error)

	// GetByID retrieves a service check by ID
	GetByID(ctx context.Context, act actor.Actor, id string) (*ServiceCheck, error)

	// Update modifies a service check's configuration
	Update(ctx context.Context, act actor.Actor, id string, input UpdateInput) (*ServiceCheck, error)

	// Delete removes a service check
	Delete(ctx context.Context, act actor.Actor, id string) error

	// List retrieves service checks with filters
	List(ctx context.Context, act actor.Actor, filter Filter) ([]*ServiceCheck, error)

	// Enable turns a check on
	Enable(ctx context.Context, act actor.Actor, id string) (*ServiceCheck, error)

	// Disable turns a check off
	Disable(ctx context.Context, act actor.Actor, id string) (*ServiceCheck, error)

	// RecordResult stores a run outcome and updates failure counters
	RecordResult(ctx context.Context, act actor.Actor, id string, input ResultInput) (*ServiceCheck, error)

	// ResetFailures clears the consecutive-failure counter
	ResetFailures(ctx context.Context, act actor.Actor, id string) (*ServiceCheck, error)

	// MarkExecuted stamps last_check_at without a result
	MarkExecuted(ctx context.Context, act actor.Actor, id string) (*ServiceCheck, error)

	// ListFailing returns checks with at least one consecutive failure
	ListFailing(ctx context.Context, act actor.Actor) ([]*ServiceCheck, error)

	// ListDue returns checks eligible to run at the given instant
	ListDue(ctx context.Context, act actor.Actor, now time.Time) ([]*ServiceCheck, error)
}
