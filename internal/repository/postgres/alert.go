package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

const alertColumns = `id, tenant_id, title, severity, status, source_type, source_id, source_name,
	triggered_at, acknowledged_at, acknowledged_by, resolved_at, resolved_by, resolution_note,
	escalated_at, escalation_level, escalation_reason, suppressed_until,
	notification_count, last_notification_at, version, created_at, updated_at`

type AlertRepository struct {
	db *dbConn
}

func NewAlertRepository(db *sql.DB) alert.Repository {
	return &AlertRepository{db: wrapDB(db)}
}

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Version == 0 {
		a.Version = 1
	}

	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.Title, a.Severity, a.Status, a.SourceType, a.SourceID, a.SourceName,
		fmtTime(a.TriggeredAt), fmtTimePtr(a.AcknowledgedAt), a.AcknowledgedBy,
		fmtTimePtr(a.ResolvedAt), a.ResolvedBy, a.ResolutionNote,
		fmtTimePtr(a.EscalatedAt), a.EscalationLevel, a.EscalationReason, fmtTimePtr(a.SuppressedUntil),
		a.NotificationCount, fmtTimePtr(a.LastNotificationAt), a.Version, fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create alert", err)
	}

	return nil
}

func scanAlert(scan func(dest ...interface{}) error) (*alert.Alert, error) {
	var a alert.Alert
	var triggeredAt, createdAt, updatedAt string
	var acknowledgedAt, resolvedAt, escalatedAt, suppressedUntil, lastNotificationAt sql.NullString

	err := scan(
		&a.ID, &a.TenantID, &a.Title, &a.Severity, &a.Status, &a.SourceType, &a.SourceID, &a.SourceName,
		&triggeredAt, &acknowledgedAt, &a.AcknowledgedBy, &resolvedAt, &a.ResolvedBy, &a.ResolutionNote,
		&escalatedAt, &a.EscalationLevel, &a.EscalationReason, &suppressedUntil,
		&a.NotificationCount, &lastNotificationAt, &a.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.TriggeredAt = parseTime(triggeredAt)
	a.AcknowledgedAt = parseTimePtr(acknowledgedAt)
	a.ResolvedAt = parseTimePtr(resolvedAt)
	a.EscalatedAt = parseTimePtr(escalatedAt)
	a.SuppressedUntil = parseTimePtr(suppressedUntil)
	a.LastNotificationAt = parseTimePtr(lastNotificationAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)

	return &a, nil
}

func (r *AlertRepository) GetByID(ctx context.Context, tenantID int64, id string) (*alert.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = ? AND id = ?`

	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	a, err := scanAlert(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}

	return a, nil
}

// Update writes the alert back with an optimistic version check. The row is
// matched on the version the caller read; a concurrent writer bumps it and
// this write then matches nothing, surfacing as StaleRecord.
func (r *AlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	now := time.Now()

	query := `
		UPDATE alerts SET
			title = ?, severity = ?, status = ?,
			acknowledged_at = ?, acknowledged_by = ?,
			resolved_at = ?, resolved_by = ?, resolution_note = ?,
			escalated_at = ?, escalation_level = ?, escalation_reason = ?,
			suppressed_until = ?, notification_count = ?, last_notification_at = ?,
			version = version + 1, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		a.Title, a.Severity, a.Status,
		fmtTimePtr(a.AcknowledgedAt), a.AcknowledgedBy,
		fmtTimePtr(a.ResolvedAt), a.ResolvedBy, a.ResolutionNote,
		fmtTimePtr(a.EscalatedAt), a.EscalationLevel, a.EscalationReason,
		fmtTimePtr(a.SuppressedUntil), a.NotificationCount, fmtTimePtr(a.LastNotificationAt),
		fmtTime(now), a.TenantID, a.ID, a.Version,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update alert", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		// Distinguish a missing alert from a version conflict
		var exists int
		err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM alerts WHERE tenant_id = ? AND id = ?", a.TenantID, a.ID,
		).Scan(&exists)
		if err != nil {
			return errors.DatabaseError("Failed to check alert existence", err)
		}
		if exists == 0 {
			return errors.NotFound("Alert")
		}
		return errors.StaleRecord("Alert")
	}

	a.Version++
	a.UpdatedAt = now
	return nil
}

func buildAlertWhere(tenantID int64, filter alert.Filter) ([]string, []interface{}) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.SourceType != "" {
		where = append(where, "source_type = ?")
		args = append(args, filter.SourceType)
	}

	return where, args
}

func (r *AlertRepository) List(ctx context.Context, tenantID int64, filter alert.Filter) ([]*alert.Alert, error) {
	where, args := buildAlertWhere(tenantID, filter)

	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM alerts WHERE %s ORDER BY triggered_at DESC`,
		strings.Join(where, " AND "))

	return r.queryAlerts(ctx, query, args...)
}

func (r *AlertRepository) ListWithPagination(ctx context.Context, tenantID int64, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	where, args := buildAlertWhere(tenantID, filter)
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause)
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count alerts", err)
	}

	query := fmt.Sprintf(`SELECT `+alertColumns+` FROM alerts WHERE %s ORDER BY triggered_at DESC LIMIT ? OFFSET ?`,
		whereClause)

	args = append(args, limit, offset)
	alerts, err := r.queryAlerts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *AlertRepository) CountByStatus(ctx context.Context, tenantID int64) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM alerts WHERE tenant_id = ? GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count alerts by status", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.DatabaseError("Failed to scan count", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func (r *AlertRepository) ListPending(ctx context.Context, tenantID int64, triggeredBefore time.Time) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = ? AND status = ? AND triggered_at < ?
		ORDER BY triggered_at ASC
	`
	return r.queryAlerts(ctx, query, tenantID, alert.StatusPending, fmtTime(triggeredBefore))
}

func (r *AlertRepository) ListActive(ctx context.Context, tenantID int64) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = ? AND status != ?
		ORDER BY triggered_at DESC
	`
	return r.queryAlerts(ctx, query, tenantID, alert.StatusResolved)
}

func (r *AlertRepository) ListNeedingNotification(ctx context.Context, tenantID int64) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = ? AND notification_count = 0 AND status IN (?, ?)
		ORDER BY triggered_at ASC
	`
	return r.queryAlerts(ctx, query, tenantID, alert.StatusPending, alert.StatusEscalated)
}

func (r *AlertRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT tenant_id FROM alerts")
	if err != nil {
		return nil, errors.DatabaseError("Failed to list alert tenants", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan tenant id", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *AlertRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]*alert.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	alerts := make([]*alert.Alert, 0, 32)
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
