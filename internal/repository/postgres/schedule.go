package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

const scheduleColumns = `id, tenant_id, name, schedule_type, interval_seconds, enabled,
	last_executed_at, execution_count, last_result,
	last_check_count, last_success_count, last_failure_count, consecutive_failures,
	lock_token, locked_at, locked_by, created_at, updated_at`

type ScheduleRepository struct {
	db *dbConn
}

func NewScheduleRepository(db *sql.DB) schedule.Repository {
	return &ScheduleRepository{db: wrapDB(db)}
}

func (r *ScheduleRepository) Create(ctx context.Context, ps *schedule.PollingSchedule) error {
	now := time.Now()
	ps.CreatedAt = now
	ps.UpdatedAt = now

	query := `
		INSERT INTO polling_schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		ps.ID, ps.TenantID, ps.Name, ps.ScheduleType, ps.IntervalSeconds, ps.Enabled,
		fmtTimePtr(ps.LastExecutedAt), ps.ExecutionCount, ps.LastResult,
		ps.LastCheckCount, ps.LastSuccessCount, ps.LastFailureCount, ps.ConsecutiveFailures,
		nullString(ps.LockToken), fmtTimePtr(ps.LockedAt), nullString(ps.LockedBy),
		fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create polling schedule", err)
	}

	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanSchedule(scan func(dest ...interface{}) error) (*schedule.PollingSchedule, error) {
	var ps schedule.PollingSchedule
	var createdAt, updatedAt string
	var lastExecutedAt, lockedAt, lockToken, lockedBy sql.NullString

	err := scan(
		&ps.ID, &ps.TenantID, &ps.Name, &ps.ScheduleType, &ps.IntervalSeconds, &ps.Enabled,
		&lastExecutedAt, &ps.ExecutionCount, &ps.LastResult,
		&ps.LastCheckCount, &ps.LastSuccessCount, &ps.LastFailureCount, &ps.ConsecutiveFailures,
		&lockToken, &lockedAt, &lockedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ps.LastExecutedAt = parseTimePtr(lastExecutedAt)
	ps.LockedAt = parseTimePtr(lockedAt)
	ps.LockToken = lockToken.String
	ps.LockedBy = lockedBy.String
	ps.CreatedAt = parseTime(createdAt)
	ps.UpdatedAt = parseTime(updatedAt)

	return &ps, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, tenantID int64, id string) (*schedule.PollingSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM polling_schedules WHERE tenant_id = ? AND id = ?`

	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	ps, err := scanSchedule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Polling schedule")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get polling schedule", err)
	}

	return ps, nil
}

// Update persists bookkeeping fields. The lock columns are deliberately
// absent from the SET list; they only change through AcquireLock and
// ReleaseLock so a bookkeeping write can never clobber another node's lock.
func (r *ScheduleRepository) Update(ctx context.Context, ps *schedule.PollingSchedule) error {
	now := time.Now()

	query := `
		UPDATE polling_schedules SET
			name = ?, schedule_type = ?, interval_seconds = ?, enabled = ?,
			last_executed_at = ?, execution_count = ?, last_result = ?,
			last_check_count = ?, last_success_count = ?, last_failure_count = ?,
			consecutive_failures = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		ps.Name, ps.ScheduleType, ps.IntervalSeconds, ps.Enabled,
		fmtTimePtr(ps.LastExecutedAt), ps.ExecutionCount, ps.LastResult,
		ps.LastCheckCount, ps.LastSuccessCount, ps.LastFailureCount,
		ps.ConsecutiveFailures, fmtTime(now), ps.TenantID, ps.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update polling schedule", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Polling schedule")
	}

	ps.UpdatedAt = now
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, tenantID int64, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM polling_schedules WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete polling schedule", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Polling schedule")
	}

	return nil
}

func (r *ScheduleRepository) List(ctx context.Context, tenantID int64, filter schedule.Filter) ([]*schedule.PollingSchedule, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.ScheduleType != "" {
		where = append(where, "schedule_type = ?")
		args = append(args, filter.ScheduleType)
	}
	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, *filter.Enabled)
	}

	query := fmt.Sprintf(`SELECT `+scheduleColumns+` FROM polling_schedules WHERE %s ORDER BY name ASC`,
		strings.Join(where, " AND "))

	return r.querySchedules(ctx, query, args...)
}

func (r *ScheduleRepository) ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*schedule.PollingSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + ` FROM polling_schedules
		WHERE tenant_id = ? AND enabled = ? AND schedule_type = ?
		ORDER BY name ASC
	`
	schedules, err := r.querySchedules(ctx, query, tenantID, true, schedule.TypeInterval)
	if err != nil {
		return nil, err
	}

	due := make([]*schedule.PollingSchedule, 0, len(schedules))
	for _, ps := range schedules {
		if ps.DueAt(now) {
			due = append(due, ps)
		}
	}

	return due, nil
}

// AcquireLock claims the schedule with a single conditional UPDATE. Two
// nodes racing on the same row send the same statement; the database applies
// them serially and the second one matches zero rows because the first
// already set lock_token.
func (r *ScheduleRepository) AcquireLock(ctx context.Context, tenantID int64, id string, nodeID string, staleAfter time.Duration) (string, error) {
	now := time.Now()
	token := uuid.New().String()
	staleBefore := fmtTime(now.Add(-staleAfter))

	query := `
		UPDATE polling_schedules
		SET lock_token = ?, locked_at = ?, locked_by = ?
		WHERE tenant_id = ? AND id = ?
		  AND (lock_token IS NULL OR locked_at < ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		token, fmtTime(now), nodeID, tenantID, id, staleBefore,
	)
	if err != nil {
		return "", errors.DatabaseError("Failed to acquire schedule lock", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM polling_schedules WHERE tenant_id = ? AND id = ?", tenantID, id,
		).Scan(&exists)
		if err != nil {
			return "", errors.DatabaseError("Failed to check schedule existence", err)
		}
		if exists == 0 {
			return "", errors.NotFound("Polling schedule")
		}
		return "", errors.LockContention("Polling schedule")
	}

	return token, nil
}

// ReleaseLock clears the lock fields only when lockToken still matches. A
// node that lost its lock to staleness reclaim gets LockContention instead
// of silently releasing the new owner's lock.
func (r *ScheduleRepository) ReleaseLock(ctx context.Context, tenantID int64, id string, lockToken string) error {
	query := `
		UPDATE polling_schedules
		SET lock_token = NULL, locked_at = NULL, locked_by = NULL
		WHERE tenant_id = ? AND id = ? AND lock_token = ?
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, id, lockToken)
	if err != nil {
		return errors.DatabaseError("Failed to release schedule lock", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM polling_schedules WHERE tenant_id = ? AND id = ?", tenantID, id,
		).Scan(&exists)
		if err != nil {
			return errors.DatabaseError("Failed to check schedule existence", err)
		}
		if exists == 0 {
			return errors.NotFound("Polling schedule")
		}
		return errors.LockContention("Polling schedule")
	}

	return nil
}

func (r *ScheduleRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT tenant_id FROM polling_schedules")
	if err != nil {
		return nil, errors.DatabaseError("Failed to list schedule tenants", err)
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

func (r *ScheduleRepository) querySchedules(ctx context.Context, query string, args ...interface{}) ([]*schedule.PollingSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list polling schedules", err)
	}
	defer rows.Close()

	schedules := make([]*schedule.PollingSchedule, 0, 32)
	for rows.Next() {
		ps, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan polling schedule", err)
		}
		schedules = append(schedules, ps)
	}

	return schedules, rows.Err()
}
