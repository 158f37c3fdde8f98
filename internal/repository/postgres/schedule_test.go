package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

func seedSchedule(t *testing.T, repo schedule.Repository, tenantID int64, name string, scheduleType string, interval int) *schedule.PollingSchedule {
	t.Helper()
	ps := &schedule.PollingSchedule{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Name:            name,
		ScheduleType:    scheduleType,
		IntervalSeconds: interval,
		Enabled:         true,
	}
	if err := repo.Create(context.Background(), ps); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return ps
}

func TestScheduleRepository_LockRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	ps := seedSchedule(t, repo, 1, "poll", schedule.TypeInterval, 60)

	token, err := repo.AcquireLock(ctx, 1, ps.ID, "node-a", 5*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	got, err := repo.GetByID(ctx, 1, ps.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LockToken != token || got.LockedBy != "node-a" || got.LockedAt == nil {
		t.Errorf("lock fields = %q/%q/%v, want all set", got.LockToken, got.LockedBy, got.LockedAt)
	}

	// Fresh lock blocks a second node
	if _, err := repo.AcquireLock(ctx, 1, ps.ID, "node-b", 5*time.Minute); !errors.IsCode(err, errors.ErrCodeLockContention) {
		t.Errorf("AcquireLock() on held lock error = %v, want LockContention", err)
	}

	// Wrong token cannot release
	if err := repo.ReleaseLock(ctx, 1, ps.ID, "wrong"); !errors.IsCode(err, errors.ErrCodeLockContention) {
		t.Errorf("ReleaseLock() wrong token error = %v, want LockContention", err)
	}

	if err := repo.ReleaseLock(ctx, 1, ps.ID, token); err != nil {
		t.Fatalf("ReleaseLock() error = %v", err)
	}

	got, _ = repo.GetByID(ctx, 1, ps.ID)
	if got.LockToken != "" || got.LockedBy != "" || got.LockedAt != nil {
		t.Error("lock fields not cleared after release")
	}
}

func TestScheduleRepository_ConcurrentAcquire(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	ps := seedSchedule(t, repo, 1, "contested", schedule.TypeInterval, 60)

	const nodes = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < nodes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AcquireLock(ctx, 1, ps.ID, "node", 5*time.Minute); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("concurrent AcquireLock() winners = %d, want exactly 1", winners)
	}
}

func TestScheduleRepository_StaleLockReclaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	ps := seedSchedule(t, repo, 1, "abandoned", schedule.TypeInterval, 60)

	if _, err := repo.AcquireLock(ctx, 1, ps.ID, "crashed", 5*time.Minute); err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	// Age the stored lock past the window
	old := fmtTime(time.Now().Add(-10 * time.Minute))
	if _, err := db.Exec("UPDATE polling_schedules SET locked_at = ? WHERE id = ?", old, ps.ID); err != nil {
		t.Fatalf("failed to age lock: %v", err)
	}

	token, err := repo.AcquireLock(ctx, 1, ps.ID, "node-b", 5*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock() on stale lock error = %v", err)
	}

	got, _ := repo.GetByID(ctx, 1, ps.ID)
	if got.LockedBy != "node-b" || got.LockToken != token {
		t.Errorf("stale reclaim locked_by = %q, want node-b", got.LockedBy)
	}
}

func TestScheduleRepository_ListDue(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	neverRun := seedSchedule(t, repo, 1, "never run", schedule.TypeInterval, 60)
	overdue := seedSchedule(t, repo, 1, "overdue", schedule.TypeInterval, 60)
	fresh := seedSchedule(t, repo, 1, "fresh", schedule.TypeInterval, 60)
	manual := seedSchedule(t, repo, 1, "manual", schedule.TypeManual, 0)
	disabled := seedSchedule(t, repo, 1, "disabled", schedule.TypeInterval, 60)
	otherTenant := seedSchedule(t, repo, 2, "foreign", schedule.TypeInterval, 60)

	now := time.Now()
	past := now.Add(-120 * time.Second)
	recent := now.Add(-5 * time.Second)

	overdue.LastExecutedAt = &past
	if err := repo.Update(ctx, overdue); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	fresh.LastExecutedAt = &recent
	if err := repo.Update(ctx, fresh); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	disabled.Enabled = false
	if err := repo.Update(ctx, disabled); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	due, err := repo.ListDue(ctx, 1, now)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}

	dueIDs := make(map[string]bool)
	for _, ps := range due {
		dueIDs[ps.ID] = true
	}
	if !dueIDs[neverRun.ID] || !dueIDs[overdue.ID] {
		t.Errorf("ListDue() = %v, missing due schedules", dueIDs)
	}
	if dueIDs[fresh.ID] || dueIDs[manual.ID] || dueIDs[disabled.ID] || dueIDs[otherTenant.ID] {
		t.Errorf("ListDue() = %v, includes non-due schedules", dueIDs)
	}
}

func TestScheduleRepository_UpdateDoesNotTouchLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	ps := seedSchedule(t, repo, 1, "bookkeeping", schedule.TypeInterval, 60)

	token, err := repo.AcquireLock(ctx, 1, ps.ID, "node-a", 5*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	ps.MarkExecuted(time.Now())
	ps.RecordResult(schedule.ResultSuccess, 3, 3, 0)
	if err := repo.Update(ctx, ps); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, 1, ps.ID)
	if got.LockToken != token {
		t.Error("bookkeeping Update() clobbered the lock")
	}
	if got.ExecutionCount != 1 || got.LastResult != schedule.ResultSuccess {
		t.Errorf("Update() lost bookkeeping: count=%d result=%s", got.ExecutionCount, got.LastResult)
	}
}
