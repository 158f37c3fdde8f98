package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

func seedAlert(t *testing.T, repo alert.Repository, tenantID int64, title, severity string) *alert.Alert {
	t.Helper()
	a := &alert.Alert{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Title:       title,
		Severity:    severity,
		Status:      alert.StatusPending,
		TriggeredAt: time.Now(),
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return a
}

func TestAlertRepository_VersionConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	a := seedAlert(t, repo, 1, "disk full", alert.SeverityCritical)
	if a.Version != 1 {
		t.Fatalf("Create() version = %d, want 1", a.Version)
	}

	// Two readers pick up version 1
	first, err := repo.GetByID(ctx, 1, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	second, err := repo.GetByID(ctx, 1, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if err := first.Acknowledge("alice", time.Now()); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if first.Version != 2 {
		t.Errorf("Update() version = %d, want 2", first.Version)
	}

	// Second writer still carries version 1 and must lose
	if err := second.Acknowledge("bob", time.Now()); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if err := repo.Update(ctx, second); !errors.IsCode(err, errors.ErrCodeStaleRecord) {
		t.Errorf("Update() with stale version error = %v, want StaleRecord", err)
	}

	got, _ := repo.GetByID(ctx, 1, a.ID)
	if got.AcknowledgedBy != "alice" {
		t.Errorf("acknowledged_by = %q, want alice", got.AcknowledgedBy)
	}
}

func TestAlertRepository_UpdateMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)

	ghost := &alert.Alert{ID: uuid.New().String(), TenantID: 1, Version: 1, TriggeredAt: time.Now()}
	if err := repo.Update(context.Background(), ghost); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Update() on missing alert error = %v, want NotFound", err)
	}
}

func TestAlertRepository_TenantScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	mine := seedAlert(t, repo, 1, "mine", alert.SeverityWarning)
	seedAlert(t, repo, 2, "theirs", alert.SeverityWarning)

	if _, err := repo.GetByID(ctx, 2, mine.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("GetByID() across tenants error = %v, want NotFound", err)
	}

	list, err := repo.List(ctx, 1, alert.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Errorf("List() = %d alerts, want only the tenant's own", len(list))
	}

	tenants, err := repo.TenantIDs(ctx)
	if err != nil {
		t.Fatalf("TenantIDs() error = %v", err)
	}
	if len(tenants) != 2 {
		t.Errorf("TenantIDs() = %v, want both tenants", tenants)
	}
}

func TestAlertRepository_ScanQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	stale := seedAlert(t, repo, 1, "stale pending", alert.SeverityCritical)
	old := fmtTime(time.Now().Add(-2 * time.Hour))
	if _, err := db.Exec("UPDATE alerts SET triggered_at = ? WHERE id = ?", old, stale.ID); err != nil {
		t.Fatalf("failed to age alert: %v", err)
	}

	fresh := seedAlert(t, repo, 1, "fresh pending", alert.SeverityWarning)

	resolved := seedAlert(t, repo, 1, "already resolved", alert.SeverityInfo)
	got, _ := repo.GetByID(ctx, 1, resolved.ID)
	if err := got.Resolve("carol", "fixed", time.Now()); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	cutoff := time.Now().Add(-time.Hour)
	pending, err := repo.ListPending(ctx, 1, cutoff)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != stale.ID {
		t.Errorf("ListPending() = %d alerts, want only the aged one", len(pending))
	}

	active, err := repo.ListActive(ctx, 1)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("ListActive() = %d alerts, want 2", len(active))
	}

	needing, err := repo.ListNeedingNotification(ctx, 1)
	if err != nil {
		t.Fatalf("ListNeedingNotification() error = %v", err)
	}
	if len(needing) != 2 {
		t.Errorf("ListNeedingNotification() = %d alerts, want 2", len(needing))
	}

	// Notified alerts drop out of the queue
	got, _ = repo.GetByID(ctx, 1, fresh.ID)
	got.RecordNotification(time.Now())
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	needing, _ = repo.ListNeedingNotification(ctx, 1)
	if len(needing) != 1 || needing[0].ID != stale.ID {
		t.Errorf("ListNeedingNotification() after notify = %d alerts, want 1", len(needing))
	}

	counts, err := repo.CountByStatus(ctx, 1)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[alert.StatusPending] != 2 || counts[alert.StatusResolved] != 1 {
		t.Errorf("CountByStatus() = %v", counts)
	}
}

func TestAlertRepository_Pagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedAlert(t, repo, 1, "alert", alert.SeverityInfo)
	}

	page, total, err := repo.ListWithPagination(ctx, 1, alert.Filter{}, 2, 0)
	if err != nil {
		t.Fatalf("ListWithPagination() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	page, _, err = repo.ListWithPagination(ctx, 1, alert.Filter{}, 2, 4)
	if err != nil {
		t.Fatalf("ListWithPagination() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("last page size = %d, want 1", len(page))
	}
}
