package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

const eventColumns = `id, tenant_id, category, severity, event_type, message, occurred_at,
	device_uid, agent_uid, source_type, source_id, source_name,
	target_type, target_id, target_name, created_at`

// EventRepository is append-only: the events table has no UPDATE or DELETE
// statement anywhere in this package.
type EventRepository struct {
	db *dbConn
}

func NewEventRepository(db *sql.DB) event.Repository {
	return &EventRepository{db: wrapDB(db)}
}

func (r *EventRepository) Create(ctx context.Context, ev *event.Event) error {
	now := time.Now()
	ev.CreatedAt = now

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.TenantID, ev.Category, ev.Severity, ev.EventType, ev.Message, fmtTime(ev.OccurredAt),
		ev.DeviceUID, ev.AgentUID, ev.SourceType, ev.SourceID, ev.SourceName,
		ev.TargetType, ev.TargetID, ev.TargetName, fmtTime(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create event", err)
	}

	return nil
}

func scanEvent(scan func(dest ...interface{}) error) (*event.Event, error) {
	var ev event.Event
	var occurredAt, createdAt string

	err := scan(
		&ev.ID, &ev.TenantID, &ev.Category, &ev.Severity, &ev.EventType, &ev.Message, &occurredAt,
		&ev.DeviceUID, &ev.AgentUID, &ev.SourceType, &ev.SourceID, &ev.SourceName,
		&ev.TargetType, &ev.TargetID, &ev.TargetName, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	ev.OccurredAt = parseTime(occurredAt)
	ev.CreatedAt = parseTime(createdAt)

	return &ev, nil
}

func (r *EventRepository) GetByID(ctx context.Context, tenantID int64, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE tenant_id = ? AND id = ?`

	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	ev, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Event")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get event", err)
	}

	return ev, nil
}

func (r *EventRepository) List(ctx context.Context, tenantID int64, filter event.Filter, limit, offset int) ([]*event.Event, int64, error) {
	where := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.MinSeverity != nil {
		where = append(where, "severity >= ?")
		args = append(args, *filter.MinSeverity)
	}
	if filter.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.DeviceUID != "" {
		where = append(where, "device_uid = ?")
		args = append(args, filter.DeviceUID)
	}
	if filter.AgentUID != "" {
		where = append(where, "agent_uid = ?")
		args = append(args, filter.AgentUID)
	}
	if filter.Since != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, fmtTime(*filter.Since))
	}
	if filter.Until != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, fmtTime(*filter.Until))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", whereClause)
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count events", err)
	}

	query := fmt.Sprintf(`SELECT `+eventColumns+` FROM events WHERE %s ORDER BY occurred_at DESC LIMIT ? OFFSET ?`,
		whereClause)

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list events", err)
	}
	defer rows.Close()

	events := make([]*event.Event, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan event", err)
		}
		events = append(events, ev)
	}

	return events, total, rows.Err()
}
