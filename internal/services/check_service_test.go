package services

import (
	"context"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/testutil"
)

func newCheckService(repo *testutil.MockCheckRepository) check.Service {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	events := NewEventService(testutil.NewMockEventRepository(), log)
	return NewCheckService(repo, events, log)
}

func TestCheckService_CreateDefaults(t *testing.T) {
	service := newCheckService(testutil.NewMockCheckRepository())
	ctx := context.Background()

	sc, err := service.Create(ctx, opA, check.CreateInput{
		Name:      "web health",
		CheckType: check.TypeHTTP,
		Target:    "https://example.com/health",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !sc.Enabled {
		t.Error("Create() check not enabled by default")
	}
	if sc.IntervalSeconds != check.DefaultIntervalSeconds {
		t.Errorf("Create() interval = %v, want %v", sc.IntervalSeconds, check.DefaultIntervalSeconds)
	}
	if sc.TimeoutSeconds != check.DefaultTimeoutSeconds {
		t.Errorf("Create() timeout = %v, want %v", sc.TimeoutSeconds, check.DefaultTimeoutSeconds)
	}
	if sc.Retries != check.DefaultRetries {
		t.Errorf("Create() retries = %v, want %v", sc.Retries, check.DefaultRetries)
	}
	if sc.ConsecutiveFailures != 0 {
		t.Errorf("Create() consecutive_failures = %v, want 0", sc.ConsecutiveFailures)
	}

	_, err = service.Create(ctx, opA, check.CreateInput{Name: "bad", CheckType: "telepathy", Target: "x"})
	if !errors.IsCode(err, errors.ErrCodeValidation) {
		t.Errorf("Create() with unknown type error = %v, want ValidationError", err)
	}
}

func TestCheckService_RecordResultClassification(t *testing.T) {
	service := newCheckService(testutil.NewMockCheckRepository())
	ctx := context.Background()

	sc, err := service.Create(ctx, opA, check.CreateInput{
		Name:      "db ping",
		CheckType: check.TypeTCP,
		Target:    "db:5432",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Failure-like results increment, the first success-like result resets
	results := []string{check.ResultError, check.ResultCritical, check.ResultSuccess}
	wantFailures := []int{1, 2, 0}

	for i, result := range results {
		updated, err := service.RecordResult(ctx, opA, sc.ID, check.ResultInput{Result: result})
		if err != nil {
			t.Fatalf("RecordResult(%s) error = %v", result, err)
		}
		if updated.ConsecutiveFailures != wantFailures[i] {
			t.Errorf("after %s: consecutive_failures = %v, want %v", result, updated.ConsecutiveFailures, wantFailures[i])
		}
		if updated.LastCheckAt == nil {
			t.Errorf("after %s: last_check_at not stamped", result)
		}
		if updated.LastResult != result {
			t.Errorf("after %s: last_result = %v", result, updated.LastResult)
		}
	}

	// Warning is success-like, timeout is failure-like
	updated, _ := service.RecordResult(ctx, opA, sc.ID, check.ResultInput{Result: check.ResultTimeout})
	if updated.ConsecutiveFailures != 1 {
		t.Errorf("after timeout: consecutive_failures = %v, want 1", updated.ConsecutiveFailures)
	}
	updated, _ = service.RecordResult(ctx, opA, sc.ID, check.ResultInput{Result: check.ResultWarning})
	if updated.ConsecutiveFailures != 0 {
		t.Errorf("after warning: consecutive_failures = %v, want 0", updated.ConsecutiveFailures)
	}
}

func TestCheckService_EnableDisable(t *testing.T) {
	service := newCheckService(testutil.NewMockCheckRepository())
	ctx := context.Background()

	sc, err := service.Create(ctx, opA, check.CreateInput{
		Name:      "dns lookup",
		CheckType: check.TypeDNS,
		Target:    "example.com",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	disabled, err := service.Disable(ctx, opA, sc.ID)
	if err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if disabled.Enabled {
		t.Error("Disable() left check enabled")
	}

	// Disabled checks are never due
	due, err := service.ListDue(ctx, opA, time.Now())
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("ListDue() with disabled check = %d, want 0", len(due))
	}

	enabled, err := service.Enable(ctx, opA, sc.ID)
	if err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if !enabled.Enabled {
		t.Error("Enable() left check disabled")
	}

	if _, err := service.Disable(ctx, viewerA, sc.ID); !errors.IsCode(err, errors.ErrCodeForbidden) {
		t.Errorf("viewer Disable() error = %v, want Forbidden", err)
	}
}

func TestCheckService_ListDue(t *testing.T) {
	repo := testutil.NewMockCheckRepository()
	service := newCheckService(repo)
	ctx := context.Background()

	neverRun, err := service.Create(ctx, opA, check.CreateInput{
		Name: "never run", CheckType: check.TypePing, Target: "10.0.0.1", IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	overdue, err := service.Create(ctx, opA, check.CreateInput{
		Name: "overdue", CheckType: check.TypePing, Target: "10.0.0.2", IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fresh, err := service.Create(ctx, opA, check.CreateInput{
		Name: "fresh", CheckType: check.TypePing, Target: "10.0.0.3", IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now := time.Now()
	past := now.Add(-120 * time.Second)
	recent := now.Add(-10 * time.Second)
	repo.Checks[overdue.ID].LastCheckAt = &past
	repo.Checks[fresh.ID].LastCheckAt = &recent

	due, err := service.ListDue(ctx, opA, now)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}

	dueIDs := make(map[string]bool)
	for _, sc := range due {
		dueIDs[sc.ID] = true
	}
	if !dueIDs[neverRun.ID] {
		t.Error("ListDue() missing never-run check")
	}
	if !dueIDs[overdue.ID] {
		t.Error("ListDue() missing overdue check")
	}
	if dueIDs[fresh.ID] {
		t.Error("ListDue() included check inside its interval")
	}
}

func TestCheckService_ResetFailures(t *testing.T) {
	service := newCheckService(testutil.NewMockCheckRepository())
	ctx := context.Background()

	sc, err := service.Create(ctx, opA, check.CreateInput{
		Name: "flaky", CheckType: check.TypeHTTP, Target: "https://flaky.internal",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := service.RecordResult(ctx, opA, sc.ID, check.ResultInput{Result: check.ResultError}); err != nil {
			t.Fatalf("RecordResult() error = %v", err)
		}
	}

	failing, err := service.ListFailing(ctx, opA)
	if err != nil {
		t.Fatalf("ListFailing() error = %v", err)
	}
	if len(failing) != 1 {
		t.Fatalf("ListFailing() = %d checks, want 1", len(failing))
	}

	reset, err := service.ResetFailures(ctx, opA, sc.ID)
	if err != nil {
		t.Fatalf("ResetFailures() error = %v", err)
	}
	if reset.ConsecutiveFailures != 0 {
		t.Errorf("ResetFailures() consecutive_failures = %v, want 0", reset.ConsecutiveFailures)
	}

	failing, _ = service.ListFailing(ctx, opA)
	if len(failing) != 0 {
		t.Errorf("ListFailing() after reset = %d checks, want 0", len(failing))
	}
}

func TestCheckService_TenantIsolation(t *testing.T) {
	service := newCheckService(testutil.NewMockCheckRepository())
	ctx := context.Background()

	sc, err := service.Create(ctx, opA, check.CreateInput{
		Name: "tenant one check", CheckType: check.TypePing, Target: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.GetByID(ctx, opB, sc.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cross-tenant GetByID() error = %v, want NotFound", err)
	}
	if _, err := service.Disable(ctx, opB, sc.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cross-tenant Disable() error = %v, want NotFound", err)
	}
	if err := service.Delete(ctx, opB, sc.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cross-tenant Delete() error = %v, want NotFound", err)
	}
}
