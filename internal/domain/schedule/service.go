package schedule

import (
	"context"
	"time"

	"github.com/probegrid/probegrid/internal/domain/actor"
)

// CreateInput carries the fields for registering a new polling schedule
type CreateInput struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	ScheduleType    string `json:"schedule_type" validate:"required,oneof=interval manual"`
	IntervalSeconds int    `json:"interval_seconds,omitempty" validate:"omitempty,min=1"`
}

// ResultInput carries the outcome of one schedule execution
type ResultInput struct {
	Result       string `json:"result" validate:"required"`
	CheckCount   int    `json:"check_count" validate:"min=0"`
	SuccessCount int    `json:"success_count" validate:"min=0"`
	FailureCount int    `json:"failure_count" validate:"min=0"`
}

// Service defines the interface for polling schedule business logic
type Service interface {
	// Create registers a new polling schedule
	Create(ctx context.Context, act actor.Actor, input CreateInput) (*PollingSchedule, error)

	// GetByID retrieves a schedule by ID
	GetByID(ctx context.Context, act actor.Actor, id string) (*PollingSchedule, error)

	// List retrieves schedules with filters
	List(ctx context.Context, act actor.Actor, filter Filter) ([]*PollingSchedule, error)

	// Delete removes a schedule
	Delete(ctx context.Context, act actor.Actor, id string) error

	// Enable turns a schedule on
	Enable(ctx context.Context, act actor.Actor, id string) (*PollingSchedule, error)

	// Disable turns a schedule off
	Disable(ctx context.Context, act actor.Actor, id string) (*PollingSchedule, error)

	// MarkExecuted stamps last_executed_at and bumps the execution counter
	MarkExecuted(ctx context.Context, act actor.Actor, id string) (*PollingSchedule, error)

	// RecordResult stores per-run counts and updates failure counters
	RecordResult(ctx context.Context, act actor.Actor, id string, input ResultInput) (*PollingSchedule, error)

	// ListDue returns schedules eligible for automatic execution
	ListDue(ctx context.Context, act actor.Actor, now time.Time) ([]*PollingSchedule, error)

	// AcquireLock claims a schedule for an executor node and returns the
	// lock token proving ownership.
	AcquireLock(ctx context.Context, act actor.Actor, id string, nodeID string) (string, error)

	// ReleaseLock releases a schedule previously claimed with the token
	ReleaseLock(ctx context.Context, act actor.Actor, id string, lockToken string) error
}
