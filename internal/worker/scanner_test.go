package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/probe"
	"github.com/probegrid/probegrid/internal/services"
	"github.com/probegrid/probegrid/internal/testutil"
)

type stubProber struct {
	outcomes map[string]probe.Outcome
}

func (p *stubProber) Supports(checkType string) bool {
	return checkType != check.TypeSNMP && checkType != check.TypeGRPC && checkType != check.TypeCustom
}

func (p *stubProber) Run(ctx context.Context, sc *check.ServiceCheck) probe.Outcome {
	if out, ok := p.outcomes[sc.Target]; ok {
		return out
	}
	return probe.Outcome{Result: check.ResultSuccess, ResponseTimeMS: 5}
}

type stubNotifier struct {
	mu       sync.Mutex
	notified []string
	fail     bool
}

func (n *stubNotifier) Notify(ctx context.Context, a *alert.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return context.DeadlineExceeded
	}
	n.notified = append(n.notified, a.ID)
	return nil
}

type scannerFixture struct {
	scanner      *TriggerScanner
	alertRepo    *testutil.MockAlertRepository
	checkRepo    *testutil.MockCheckRepository
	scheduleRepo *testutil.MockScheduleRepository
	alerts       alert.Service
	checks       check.Service
	schedules    schedule.Service
	notifier     *stubNotifier
	prober       *stubProber
}

func newScannerFixture(cfg config.ScannerConfig) *scannerFixture {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	alertRepo := testutil.NewMockAlertRepository()
	checkRepo := testutil.NewMockCheckRepository()
	scheduleRepo := testutil.NewMockScheduleRepository()
	events := services.NewEventService(testutil.NewMockEventRepository(), log)

	alerts := services.NewAlertService(alertRepo, events, log)
	checks := services.NewCheckService(checkRepo, events, log)
	schedules := services.NewScheduleService(scheduleRepo, events, cfg, log)

	prober := &stubProber{outcomes: make(map[string]probe.Outcome)}
	notify := &stubNotifier{}
	tenants := NewCombinedTenantSource(alertRepo, checkRepo, scheduleRepo)

	return &scannerFixture{
		scanner:      NewTriggerScanner(alerts, checks, schedules, tenants, prober, notify, cfg, log),
		alertRepo:    alertRepo,
		checkRepo:    checkRepo,
		scheduleRepo: scheduleRepo,
		alerts:       alerts,
		checks:       checks,
		schedules:    schedules,
		notifier:     notify,
		prober:       prober,
	}
}

var testCfg = config.ScannerConfig{
	Enabled:         true,
	NodeID:          "node-test",
	ScanInterval:    30 * time.Second,
	LockStaleFactor: 3,
	LockStaleMin:    5 * time.Minute,
	EscalateAfter:   30 * time.Minute,
}

var op = actor.Actor{TenantID: 1, Role: actor.RoleOperator, Name: "op"}

func TestTriggerScanner_FullCycle(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	ps, err := f.schedules.Create(ctx, op, schedule.CreateInput{
		Name: "core poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}

	healthy, err := f.checks.Create(ctx, op, check.CreateInput{
		Name: "healthy", CheckType: check.TypeHTTP, Target: "ok-target", Retries: 1,
	})
	if err != nil {
		t.Fatalf("Create check error = %v", err)
	}
	failing, err := f.checks.Create(ctx, op, check.CreateInput{
		Name: "failing", CheckType: check.TypeHTTP, Target: "bad-target", Retries: 1,
	})
	if err != nil {
		t.Fatalf("Create check error = %v", err)
	}
	f.prober.outcomes["bad-target"] = probe.Outcome{Result: check.ResultError, Error: "connection refused"}

	f.scanner.ScanOnce(ctx)

	// Schedule executed, result recorded, lock released
	got, err := f.schedules.GetByID(ctx, op, ps.ID)
	if err != nil {
		t.Fatalf("GetByID schedule error = %v", err)
	}
	if got.ExecutionCount != 1 {
		t.Errorf("schedule execution_count = %v, want 1", got.ExecutionCount)
	}
	if got.LastResult != schedule.ResultPartial {
		t.Errorf("schedule last_result = %v, want partial", got.LastResult)
	}
	if got.LastCheckCount != 2 || got.LastSuccessCount != 1 || got.LastFailureCount != 1 {
		t.Errorf("schedule counts = %d/%d/%d, want 2/1/1",
			got.LastCheckCount, got.LastSuccessCount, got.LastFailureCount)
	}
	if got.LockToken != "" || got.LockedBy != "" {
		t.Error("schedule lock not released after run")
	}

	// Check results recorded
	h, _ := f.checks.GetByID(ctx, op, healthy.ID)
	if h.LastResult != check.ResultSuccess || h.ConsecutiveFailures != 0 {
		t.Errorf("healthy check result = %v/%d, want success/0", h.LastResult, h.ConsecutiveFailures)
	}
	fl, _ := f.checks.GetByID(ctx, op, failing.ID)
	if fl.LastResult != check.ResultError || fl.ConsecutiveFailures != 1 {
		t.Errorf("failing check result = %v/%d, want error/1", fl.LastResult, fl.ConsecutiveFailures)
	}

	// Failure streak crossed the retry budget, so an alert was raised and
	// notified in the same cycle
	alerts, _, err := f.alerts.List(ctx, op, alert.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List alerts error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts after cycle = %d, want 1", len(alerts))
	}
	if alerts[0].SourceID != failing.ID {
		t.Errorf("alert source = %v, want %v", alerts[0].SourceID, failing.ID)
	}
	if alerts[0].NotificationCount != 1 {
		t.Errorf("alert notification_count = %v, want 1", alerts[0].NotificationCount)
	}
	if len(f.notifier.notified) != 1 {
		t.Errorf("notifier deliveries = %d, want 1", len(f.notifier.notified))
	}
}

func TestTriggerScanner_SkipsLockedSchedule(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	ps, err := f.schedules.Create(ctx, op, schedule.CreateInput{
		Name: "claimed elsewhere", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}

	// Another node holds a fresh lock
	if _, err := f.schedules.AcquireLock(ctx, op, ps.ID, "node-other"); err != nil {
		t.Fatalf("AcquireLock error = %v", err)
	}

	f.scanner.ScanOnce(ctx)

	got, _ := f.schedules.GetByID(ctx, op, ps.ID)
	if got.ExecutionCount != 0 {
		t.Errorf("locked schedule execution_count = %v, want 0", got.ExecutionCount)
	}
	if got.LockedBy != "node-other" {
		t.Errorf("locked_by = %v, want node-other", got.LockedBy)
	}
}

func TestTriggerScanner_EscalatesStalePending(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	stale, err := f.alerts.Trigger(ctx, op, alert.TriggerInput{Title: "old", Severity: alert.SeverityCritical})
	if err != nil {
		t.Fatalf("Trigger error = %v", err)
	}
	fresh, err := f.alerts.Trigger(ctx, op, alert.TriggerInput{Title: "new", Severity: alert.SeverityCritical})
	if err != nil {
		t.Fatalf("Trigger error = %v", err)
	}

	// Age one alert past the escalation deadline
	f.alertRepo.Alerts[stale.ID].TriggeredAt = time.Now().Add(-time.Hour)

	f.scanner.ScanOnce(ctx)

	got, _ := f.alerts.GetByID(ctx, op, stale.ID)
	if got.Status != alert.StatusEscalated {
		t.Errorf("stale alert status = %v, want escalated", got.Status)
	}
	if got.EscalationLevel != 1 {
		t.Errorf("stale alert escalation_level = %v, want 1", got.EscalationLevel)
	}

	got, _ = f.alerts.GetByID(ctx, op, fresh.ID)
	if got.Status != alert.StatusPending {
		t.Errorf("fresh alert status = %v, want pending", got.Status)
	}
}

func TestTriggerScanner_NotificationRetriesOnFailure(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	a, err := f.alerts.Trigger(ctx, op, alert.TriggerInput{Title: "undelivered", Severity: alert.SeverityWarning})
	if err != nil {
		t.Fatalf("Trigger error = %v", err)
	}

	f.notifier.fail = true
	f.scanner.ScanOnce(ctx)

	got, _ := f.alerts.GetByID(ctx, op, a.ID)
	if got.NotificationCount != 0 {
		t.Errorf("notification_count after failed delivery = %v, want 0", got.NotificationCount)
	}

	// Next cycle delivers
	f.notifier.fail = false
	f.scanner.ScanOnce(ctx)

	got, _ = f.alerts.GetByID(ctx, op, a.ID)
	if got.NotificationCount != 1 {
		t.Errorf("notification_count after retry = %v, want 1", got.NotificationCount)
	}
}

func TestTriggerScanner_UnsupportedCheckOnlyMarked(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	if _, err := f.schedules.Create(ctx, op, schedule.CreateInput{
		Name: "agent poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	}); err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}

	sc, err := f.checks.Create(ctx, op, check.CreateInput{
		Name: "snmp walk", CheckType: check.TypeSNMP, Target: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Create check error = %v", err)
	}

	f.scanner.ScanOnce(ctx)

	got, _ := f.checks.GetByID(ctx, op, sc.ID)
	if got.LastCheckAt == nil {
		t.Error("unsupported check was not marked executed")
	}
	if got.LastResult != "" {
		t.Errorf("unsupported check last_result = %v, want empty", got.LastResult)
	}
	if got.ConsecutiveFailures != 0 {
		t.Errorf("unsupported check consecutive_failures = %v, want 0", got.ConsecutiveFailures)
	}
}

// ageForNextCycle rewinds the schedule's and check's last-run stamps so the
// next ScanOnce sees them due again
func (f *scannerFixture) ageForNextCycle(scheduleID, checkID string) {
	past := time.Now().Add(-time.Hour)
	if ps, ok := f.scheduleRepo.Schedules[scheduleID]; ok {
		ps.LastExecutedAt = &past
	}
	if sc, ok := f.checkRepo.Checks[checkID]; ok {
		sc.LastCheckAt = &past
	}
}

func TestTriggerScanner_AlertAfterRetryBudgetLowered(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	ps, err := f.schedules.Create(ctx, op, schedule.CreateInput{
		Name: "poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}
	sc, err := f.checks.Create(ctx, op, check.CreateInput{
		Name: "slow to alert", CheckType: check.TypeHTTP, Target: "bad-target", Retries: 5,
	})
	if err != nil {
		t.Fatalf("Create check error = %v", err)
	}
	f.prober.outcomes["bad-target"] = probe.Outcome{Result: check.ResultError, Error: "connection refused"}

	// Three failing cycles, all below the budget of 5
	for i := 0; i < 3; i++ {
		f.scanner.ScanOnce(ctx)
		f.ageForNextCycle(ps.ID, sc.ID)
	}
	alerts, _, err := f.alerts.List(ctx, op, alert.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List alerts error = %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts below budget = %d, want 0", len(alerts))
	}

	// Lower the budget below the streak that already happened. The next
	// failure must still raise an alert even though the streak never passes
	// through the exact new threshold.
	newRetries := 2
	if _, err := f.checks.Update(ctx, op, sc.ID, check.UpdateInput{Retries: &newRetries}); err != nil {
		t.Fatalf("Update check error = %v", err)
	}

	f.scanner.ScanOnce(ctx)

	alerts, _, err = f.alerts.List(ctx, op, alert.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List alerts error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts after lowered budget = %d, want 1", len(alerts))
	}
	if alerts[0].SourceID != sc.ID {
		t.Errorf("alert source = %v, want %v", alerts[0].SourceID, sc.ID)
	}
}

func TestTriggerScanner_NoDuplicateAlertForOngoingStreak(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	ps, err := f.schedules.Create(ctx, op, schedule.CreateInput{
		Name: "poll", ScheduleType: schedule.TypeInterval, IntervalSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}
	sc, err := f.checks.Create(ctx, op, check.CreateInput{
		Name: "down", CheckType: check.TypeHTTP, Target: "bad-target", Retries: 1,
	})
	if err != nil {
		t.Fatalf("Create check error = %v", err)
	}
	f.prober.outcomes["bad-target"] = probe.Outcome{Result: check.ResultError, Error: "connection refused"}

	// First cycle raises the alert, the following two ride the same streak
	for i := 0; i < 3; i++ {
		f.scanner.ScanOnce(ctx)
		f.ageForNextCycle(ps.ID, sc.ID)
	}

	alerts, _, err := f.alerts.List(ctx, op, alert.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List alerts error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts during ongoing streak = %d, want 1", len(alerts))
	}

	// Once the alert is closed out, a still-failing check warrants a new one
	if _, err := f.alerts.Acknowledge(ctx, op, alerts[0].ID); err != nil {
		t.Fatalf("Acknowledge error = %v", err)
	}
	if _, err := f.alerts.Resolve(ctx, op, alerts[0].ID, "rebooted"); err != nil {
		t.Fatalf("Resolve error = %v", err)
	}

	f.scanner.ScanOnce(ctx)

	alerts, _, err = f.alerts.List(ctx, op, alert.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List alerts error = %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts after resolve = %d, want 2", len(alerts))
	}
}

func TestCombinedTenantSource_Union(t *testing.T) {
	f := newScannerFixture(testCfg)
	ctx := context.Background()

	opT3 := actor.Actor{TenantID: 3, Role: actor.RoleOperator, Name: "op3"}
	opT5 := actor.Actor{TenantID: 5, Role: actor.RoleOperator, Name: "op5"}

	if _, err := f.alerts.Trigger(ctx, opT3, alert.TriggerInput{Title: "a", Severity: alert.SeverityInfo}); err != nil {
		t.Fatalf("Trigger error = %v", err)
	}
	if _, err := f.checks.Create(ctx, opT5, check.CreateInput{Name: "c", CheckType: check.TypePing, Target: "x"}); err != nil {
		t.Fatalf("Create check error = %v", err)
	}
	if _, err := f.schedules.Create(ctx, opT5, schedule.CreateInput{Name: "s", ScheduleType: schedule.TypeManual}); err != nil {
		t.Fatalf("Create schedule error = %v", err)
	}

	tenants := NewCombinedTenantSource(f.alertRepo, f.checkRepo, f.scheduleRepo)
	ids, err := tenants.TenantIDs(ctx)
	if err != nil {
		t.Fatalf("TenantIDs error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 5 {
		t.Errorf("TenantIDs = %v, want [3 5]", ids)
	}
}
