package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

const checkColumns = `id, tenant_id, name, check_type, target, agent_id, enabled,
	interval_seconds, timeout_seconds, retries, consecutive_failures,
	last_check_at, last_result, last_response_time_ms, last_error, created_at, updated_at`

type CheckRepository struct {
	db *dbConn
}

func NewCheckRepository(db *sql.DB) check.Repository {
	return &CheckRepository{db: wrapDB(db)}
}

func (r *CheckRepository) Create(ctx context.Context, sc *check.ServiceCheck) error {
	now := time.Now()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	query := `
		INSERT INTO service_checks (` + checkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sc.ID, sc.TenantID, sc.Name, sc.CheckType, sc.Target, sc.AgentID, sc.Enabled,
		sc.IntervalSeconds, sc.TimeoutSeconds, sc.Retries, sc.ConsecutiveFailures,
		fmtTimePtr(sc.LastCheckAt), sc.LastResult, sc.LastResponseTimeMS, sc.LastError,
		fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create service check", err)
	}

	return nil
}

func scanCheck(scan func(dest ...interface{}) error) (*check.ServiceCheck, error) {
	var sc check.ServiceCheck
	var createdAt, updatedAt string
	var lastCheckAt sql.NullString
	var lastResponseTimeMS sql.NullInt64

	err := scan(
		&sc.ID, &sc.TenantID, &sc.Name, &sc.CheckType, &sc.Target, &sc.AgentID, &sc.Enabled,
		&sc.IntervalSeconds, &sc.TimeoutSeconds, &sc.Retries, &sc.ConsecutiveFailures,
		&lastCheckAt, &sc.LastResult, &lastResponseTimeMS, &sc.LastError, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sc.LastCheckAt = parseTimePtr(lastCheckAt)
	if lastResponseTimeMS.Valid {
		sc.LastResponseTimeMS = &lastResponseTimeMS.Int64
	}
	sc.CreatedAt = parseTime(createdAt)
	sc.UpdatedAt = parseTime(updatedAt)

	return &sc, nil
}

func (r *CheckRepository) GetByID(ctx context.Context, tenantID int64, id string) (*check.ServiceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM service_checks WHERE tenant_id = ? AND id = ?`

	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	sc, err := scanCheck(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Service check")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get service check", err)
	}

	return sc, nil
}

func (r *CheckRepository) Update(ctx context.Context, sc *check.ServiceCheck) error {
	now := time.Now()

	query := `
		UPDATE service_checks SET
			name = ?, check_type = ?, target = ?, agent_id = ?, enabled = ?,
			interval_seconds = ?, timeout_seconds = ?, retries = ?, consecutive_failures = ?,
			last_check_at = ?, last_result = ?, last_response_time_ms = ?, last_error = ?,
			updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	var responseTime interface{}
	if sc.LastResponseTimeMS != nil {
		responseTime = *sc.LastResponseTimeMS
	}

	result, err := r.db.ExecContext(ctx, query,
		sc.Name, sc.CheckType, sc.Target, sc.AgentID, sc.Enabled,
		sc.IntervalSeconds, sc.TimeoutSeconds, sc.Retries, sc.ConsecutiveFailures,
		fmtTimePtr(sc.LastCheckAt), sc.LastResult, responseTime, sc.LastError,
		fmtTime(now), sc.TenantID, sc.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update service check", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Service check")
	}

	sc.UpdatedAt = now
	return nil
}

func (r *CheckRepository) Delete(ctx context.Context, tenantID int64, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM service_checks WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete service check", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Service check")
	}

	return nil
}

func (r *CheckRepository) List(ctx context.Context, tenantID int64, filter check.Filter) ([]*check.ServiceCheck, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.CheckType != "" {
		where = append(where, "check_type = ?")
		args = append(args, filter.CheckType)
	}
	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, *filter.Enabled)
	}
	if filter.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, filter.AgentID)
	}

	query := fmt.Sprintf(`SELECT `+checkColumns+` FROM service_checks WHERE %s ORDER BY name ASC`,
		strings.Join(where, " AND "))

	return r.queryChecks(ctx, query, args...)
}

func (r *CheckRepository) ListEnabled(ctx context.Context, tenantID int64) ([]*check.ServiceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM service_checks WHERE tenant_id = ? AND enabled = ? ORDER BY name ASC`
	return r.queryChecks(ctx, query, tenantID, true)
}

func (r *CheckRepository) ListFailing(ctx context.Context, tenantID int64) ([]*check.ServiceCheck, error) {
	query := `
		SELECT ` + checkColumns + ` FROM service_checks
		WHERE tenant_id = ? AND consecutive_failures > 0
		ORDER BY consecutive_failures DESC
	`
	return r.queryChecks(ctx, query, tenantID)
}

// ListDue selects enabled checks whose interval has elapsed as of now.
func (r *CheckRepository) ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*check.ServiceCheck, error) {
	query := `
		SELECT ` + checkColumns + ` FROM service_checks
		WHERE tenant_id = ? AND enabled = ?
		ORDER BY name ASC
	`
	checks, err := r.queryChecks(ctx, query, tenantID, true)
	if err != nil {
		return nil, err
	}

	// Interval arithmetic varies per row, so the elapsed test runs here
	due := make([]*check.ServiceCheck, 0, len(checks))
	for _, sc := range checks {
		if sc.DueAt(now) {
			due = append(due, sc)
		}
	}

	return due, nil
}

func (r *CheckRepository) ListByAgent(ctx context.Context, tenantID int64, agentID string) ([]*check.ServiceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM service_checks WHERE tenant_id = ? AND agent_id = ? ORDER BY name ASC`
	return r.queryChecks(ctx, query, tenantID, agentID)
}

func (r *CheckRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT tenant_id FROM service_checks")
	if err != nil {
		return nil, errors.DatabaseError("Failed to list check tenants", err)
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

func (r *CheckRepository) queryChecks(ctx context.Context, query string, args ...interface{}) ([]*check.ServiceCheck, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list service checks", err)
	}
	defer rows.Close()

	checks := make([]*check.ServiceCheck, 0, 32)
	for rows.Next() {
		sc, err := scanCheck(rows.Scan)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan service check", err)
		}
		checks = append(checks, sc)
	}

	return checks, rows.Err()
}
