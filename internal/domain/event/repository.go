package event

import (
	"context"
)

// Repository defines the interface for event data access. Append-only: the
// interface deliberately has no update or delete.
type Repository interface {
	// Create appends a new event
	Create(ctx context.Context, ev *Event) error

	// GetByID retrieves an event by ID within a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Event, error)

	// List retrieves events with filters, newest first
	List(ctx context.Context, tenantID int64, filter Filter, limit, offset int) ([]*Event, int64, error)
}
