package schedule

import (
	"context"
	"time"
)

// Repository defines the interface for polling schedule data access.
//
// AcquireLock and ReleaseLock are the concurrency-critical operations: both
// must be implemented as single conditional writes so that two nodes racing
// on the same schedule see exactly one winner.
type Repository interface {
	// Create creates a new polling schedule
	Create(ctx context.Context, ps *PollingSchedule) error

	// GetByID retrieves a schedule by ID within a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*PollingSchedule, error)

	// Update persists schedule bookkeeping fields. Lock fields are not
	// touched here; they only change through AcquireLock and ReleaseLock.
	Update(ctx context.Context, ps *PollingSchedule) error

	// Delete removes a schedule
	Delete(ctx context.Context, tenantID int64, id string) error

	// List retrieves schedules with filters
	List(ctx context.Context, tenantID int64, filter Filter) ([]*PollingSchedule, error)

	// ListDue returns enabled interval schedules that have never run or
	// whose interval has elapsed as of now.
	ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*PollingSchedule, error)

	// AcquireLock atomically claims the schedule for nodeID: the write
	// succeeds only if the schedule is unlocked or its lock is older than
	// staleAfter. On success it returns the fresh lock token; on contention
	// it returns a LockContention error.
	AcquireLock(ctx context.Context, tenantID int64, id string, nodeID string, staleAfter time.Duration) (string, error)

	// ReleaseLock clears the lock fields, but only if lockToken still
	// matches the stored token. A mismatch (the lock was reclaimed by
	// another node) returns a LockContention error.
	ReleaseLock(ctx context.Context, tenantID int64, id string, lockToken string) error

	// TenantIDs returns the distinct tenants that have at least one schedule
	TenantIDs(ctx context.Context) ([]int64, error)
}
