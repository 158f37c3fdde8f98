package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/testutil"
)

func newScheduleService(repo *testutil.MockScheduleRepository) schedule.Service {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	events := NewEventService(testutil.NewMockEventRepository(), log)
	cfg := config.ScannerConfig{LockStaleFactor: 3, LockStaleMin: 5 * time.Minute}
	return NewScheduleService(repo, events, cfg, log)
}

func TestScheduleService_Create(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   schedule.CreateInput
		wantErr bool
	}{
		{
			name:    "interval schedule",
			input:   schedule.CreateInput{Name: "core poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 300},
			wantErr: false,
		},
		{
			name:    "manual schedule without interval",
			input:   schedule.CreateInput{Name: "on demand", ScheduleType: schedule.TypeManual},
			wantErr: false,
		},
		{
			name:    "interval schedule without interval",
			input:   schedule.CreateInput{Name: "broken", ScheduleType: schedule.TypeInterval},
			wantErr: true,
		},
		{
			name:    "unknown schedule type",
			input:   schedule.CreateInput{Name: "odd", ScheduleType: "cron", IntervalSeconds: 60},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := service.Create(ctx, opA, tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !ps.Enabled {
				t.Error("Create() schedule not enabled by default")
			}
		})
	}
}

func TestScheduleService_ListDue(t *testing.T) {
	repo := testutil.NewMockScheduleRepository()
	service := newScheduleService(repo)
	ctx := context.Background()

	overdue, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "overdue", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fresh, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "fresh", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	manual, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "manual", ScheduleType: schedule.TypeManual,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	disabled, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "disabled", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := service.Disable(ctx, opA, disabled.ID); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	now := time.Now()
	past := now.Add(-120 * time.Second)
	recent := now.Add(-5 * time.Second)
	repo.Schedules[overdue.ID].LastExecutedAt = &past
	repo.Schedules[fresh.ID].LastExecutedAt = &recent

	due, err := service.ListDue(ctx, opA, now)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}

	dueIDs := make(map[string]bool)
	for _, ps := range due {
		dueIDs[ps.ID] = true
	}
	if !dueIDs[overdue.ID] {
		t.Error("ListDue() missing schedule 120s past a 60s interval")
	}
	if dueIDs[fresh.ID] {
		t.Error("ListDue() included schedule inside its interval")
	}
	if dueIDs[manual.ID] {
		t.Error("ListDue() included manual schedule")
	}
	if dueIDs[disabled.ID] {
		t.Error("ListDue() included disabled schedule")
	}
}

func TestScheduleService_LockLifecycle(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "locked poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	token, err := service.AcquireLock(ctx, opA, ps.ID, "node-a")
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if token == "" {
		t.Fatal("AcquireLock() returned empty token")
	}

	// A second node cannot acquire while the lock is fresh
	if _, err := service.AcquireLock(ctx, opA, ps.ID, "node-b"); !errors.IsCode(err, errors.ErrCodeLockContention) {
		t.Errorf("second AcquireLock() error = %v, want LockContention", err)
	}

	// Release with a stale token fails, the real token succeeds
	if err := service.ReleaseLock(ctx, opA, ps.ID, "bogus-token"); !errors.IsCode(err, errors.ErrCodeLockContention) {
		t.Errorf("ReleaseLock() with wrong token error = %v, want LockContention", err)
	}
	if err := service.ReleaseLock(ctx, opA, ps.ID, token); err != nil {
		t.Fatalf("ReleaseLock() error = %v", err)
	}

	// After release the other node can acquire
	if _, err := service.AcquireLock(ctx, opA, ps.ID, "node-b"); err != nil {
		t.Errorf("AcquireLock() after release error = %v", err)
	}
}

func TestScheduleService_ConcurrentAcquire(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "contested", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const nodes = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < nodes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.AcquireLock(ctx, opA, ps.ID, "node"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else if !errors.IsCode(err, errors.ErrCodeLockContention) {
				t.Errorf("AcquireLock() error = %v, want LockContention", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("concurrent AcquireLock() winners = %d, want exactly 1", winners)
	}
}

func TestScheduleService_StaleLockReclaim(t *testing.T) {
	repo := testutil.NewMockScheduleRepository()
	service := newScheduleService(repo)
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "abandoned", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.AcquireLock(ctx, opA, ps.ID, "crashed-node"); err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}

	// Age the lock past the staleness window (max(3x60s, 5m) = 5m)
	old := time.Now().Add(-10 * time.Minute)
	repo.Schedules[ps.ID].LockedAt = &old

	token, err := service.AcquireLock(ctx, opA, ps.ID, "node-b")
	if err != nil {
		t.Fatalf("AcquireLock() on stale lock error = %v", err)
	}

	got, _ := service.GetByID(ctx, opA, ps.ID)
	if got.LockedBy != "node-b" {
		t.Errorf("stale reclaim locked_by = %v, want node-b", got.LockedBy)
	}

	// The crashed node's old token can no longer release
	if err := service.ReleaseLock(ctx, opA, ps.ID, token); err != nil {
		t.Errorf("ReleaseLock() with fresh token error = %v", err)
	}
}

func TestScheduleService_RecordResultClassification(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "classified", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	results := []string{schedule.ResultError, schedule.ResultFailed, schedule.ResultPartial}
	wantFailures := []int{1, 2, 0}

	for i, result := range results {
		updated, err := service.RecordResult(ctx, opA, ps.ID, schedule.ResultInput{
			Result: result, CheckCount: 10, SuccessCount: 7, FailureCount: 3,
		})
		if err != nil {
			t.Fatalf("RecordResult(%s) error = %v", result, err)
		}
		if updated.ConsecutiveFailures != wantFailures[i] {
			t.Errorf("after %s: consecutive_failures = %v, want %v", result, updated.ConsecutiveFailures, wantFailures[i])
		}
	}

	updated, _ := service.GetByID(ctx, opA, ps.ID)
	if updated.LastCheckCount != 10 || updated.LastSuccessCount != 7 || updated.LastFailureCount != 3 {
		t.Errorf("RecordResult() counts = %d/%d/%d, want 10/7/3",
			updated.LastCheckCount, updated.LastSuccessCount, updated.LastFailureCount)
	}
}

func TestScheduleService_MarkExecuted(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "counted", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := int64(1); i <= 3; i++ {
		updated, err := service.MarkExecuted(ctx, opA, ps.ID)
		if err != nil {
			t.Fatalf("MarkExecuted() error = %v", err)
		}
		if updated.ExecutionCount != i {
			t.Errorf("MarkExecuted() count = %v, want %v", updated.ExecutionCount, i)
		}
		if updated.LastExecutedAt == nil {
			t.Error("MarkExecuted() did not stamp last_executed_at")
		}
	}
}

func TestScheduleService_TenantIsolation(t *testing.T) {
	service := newScheduleService(testutil.NewMockScheduleRepository())
	ctx := context.Background()

	ps, err := service.Create(ctx, opA, schedule.CreateInput{
		Name: "tenant one poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.GetByID(ctx, opB, ps.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cross-tenant GetByID() error = %v, want NotFound", err)
	}
	if _, err := service.AcquireLock(ctx, opB, ps.ID, "node-x"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cross-tenant AcquireLock() error = %v, want NotFound", err)
	}
}
