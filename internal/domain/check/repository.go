package check

import (
	"context"
	"time"
)

// Repository defines the interface for service check data access
type Repository interface {
	// Create creates a new service check
	Create(ctx context.Context, sc *ServiceCheck) error

	// GetByID retrieves a service check by ID within a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*ServiceCheck, error)

	// Update persists service check state
	Update(ctx context.Context, sc *ServiceCheck) error

	// Delete removes a service check
	Delete(ctx context.Context, tenantID int64, id string) error

	// List retrieves service checks with filters
	List(ctx context.Context, tenantID int64, filter Filter) ([]*ServiceCheck, error)

	// ListEnabled returns enabled checks regardless of failure state
	ListEnabled(ctx context.Context, tenantID int64) ([]*ServiceCheck, error)

	// ListFailing returns checks with consecutive_failures > 0
	ListFailing(ctx context.Context, tenantID int64) ([]*ServiceCheck, error)

	// ListDue returns enabled checks that have never run or whose interval
	// has elapsed as of now.
	ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*ServiceCheck, error)

	// ListByAgent returns checks assigned to an agent
	ListByAgent(ctx context.Context, tenantID int64, agentID string) ([]*ServiceCheck, error)

	// TenantIDs returns the distinct tenants that have at least one check
	TenantIDs(ctx context.Context) ([]int64, error)
}
