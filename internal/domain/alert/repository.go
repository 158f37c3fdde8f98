package alert

import (
	"context"
	"time"
)

// Repository defines the interface for alert data access. Every method is
// scoped to a tenant; lookups for an alert belonging to another tenant
// behave as if the alert does not exist.
type Repository interface {
	// Create creates a new alert
	Create(ctx context.Context, alert *Alert) error

	// GetByID retrieves an alert by ID within a tenant
	GetByID(ctx context.Context, tenantID int64, id string) (*Alert, error)

	// Update persists alert state with an optimistic version check: the write
	// only applies if the stored version still matches alert.Version, and the
	// version is incremented on success. A concurrent modification yields a
	// StaleRecord error.
	Update(ctx context.Context, alert *Alert) error

	// List retrieves alerts with filters
	List(ctx context.Context, tenantID int64, filter Filter) ([]*Alert, error)

	// ListWithPagination retrieves alerts with filters and pagination
	ListWithPagination(ctx context.Context, tenantID int64, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// CountByStatus counts alerts by status
	CountByStatus(ctx context.Context, tenantID int64) (map[string]int, error)

	// ListPending returns pending alerts triggered before the cutoff,
	// candidates for auto-escalation.
	ListPending(ctx context.Context, tenantID int64, triggeredBefore time.Time) ([]*Alert, error)

	// ListActive returns alerts in any non-resolved status
	ListActive(ctx context.Context, tenantID int64) ([]*Alert, error)

	// ListNeedingNotification returns alerts with no notification sent yet in
	// status pending or escalated.
	ListNeedingNotification(ctx context.Context, tenantID int64) ([]*Alert, error)

	// TenantIDs returns the distinct tenants that have at least one alert
	TenantIDs(ctx context.Context) ([]int64, error)
}
