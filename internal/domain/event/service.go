package event

import (
	"context"
	"time"

	"github.com/probegrid/probegrid/internal/domain/actor"
)

// RecordInput carries the fields for appending an event
type RecordInput struct {
	Category   string `json:"category" validate:"required,oneof=check alert agent poller device system audit"`
	Severity   int    `json:"severity" validate:"min=0,max=4"`
	EventType  string `json:"event_type" validate:"required"`
	Message    string `json:"message" validate:"required"`
	DeviceUID  string `json:"device_uid,omitempty"`
	AgentUID   string `json:"agent_uid,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

// Service defines the interface for event log business logic
type Service interface {
	// Record appends an event stamped at the current time
	Record(ctx context.Context, act actor.Actor, input RecordInput) (*Event, error)

	// RecordAtTime appends an event with an explicit occurrence time, for
	// sources that report with a delay.
	RecordAtTime(ctx context.Context, act actor.Actor, input RecordInput, occurredAt time.Time) (*Event, error)

	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, act actor.Actor, id string) (*Event, error)

	// List retrieves events with filters, newest first
	List(ctx context.Context, act actor.Actor, filter Filter, limit, offset int) ([]*Event, int64, error)

	// ListByCategory retrieves events in one category
	ListByCategory(ctx context.Context, act actor.Actor, category string, limit, offset int) ([]*Event, int64, error)

	// ListBySeverity retrieves events at or above a minimum severity
	ListBySeverity(ctx context.Context, act actor.Actor, minSeverity int, limit, offset int) ([]*Event, int64, error)

	// ListByDevice retrieves events correlated with a device
	ListByDevice(ctx context.Context, act actor.Actor, deviceUID string, limit, offset int) ([]*Event, int64, error)

	// ListByAgent retrieves events correlated with an agent
	ListByAgent(ctx context.Context, act actor.Actor, agentUID string, limit, offset int) ([]*Event, int64, error)

	// ListRecent retrieves events from the last hour
	ListRecent(ctx context.Context, act actor.Actor, limit, offset int) ([]*Event, int64, error)

	// ListInRange retrieves events within a time window
	ListInRange(ctx context.Context, act actor.Actor, since, until time.Time, limit, offset int) ([]*Event, int64, error)
}
