package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/notifier"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/metrics"
	"github.com/probegrid/probegrid/internal/probe"
)

// Prober runs one service check and reports the outcome
type Prober interface {
	Supports(checkType string) bool
	Run(ctx context.Context, sc *check.ServiceCheck) probe.Outcome
}

// TriggerScanner is the periodic driver: it finds due schedules per tenant,
// claims them through the distributed lock, runs the tenant's due checks,
// escalates stale pending alerts, and pushes first notifications. The
// scanner holds no scheduling state of its own; everything it needs comes
// back from the due-item queries, so any number of nodes can run the same
// loop concurrently.
type TriggerScanner struct {
	alerts    alert.Service
	checks    check.Service
	schedules schedule.Service
	tenants   TenantSource
	probes    Prober
	notify    notifier.Notifier
	cfg       config.ScannerConfig
	logger    *logger.Logger
	cron      *cron.Cron
}

// TenantSource enumerates tenants that have scannable entities
type TenantSource interface {
	TenantIDs(ctx context.Context) ([]int64, error)
}

// NewTriggerScanner creates a new trigger scanner worker
func NewTriggerScanner(
	alerts alert.Service,
	checks check.Service,
	schedules schedule.Service,
	tenants TenantSource,
	probes Prober,
	notify notifier.Notifier,
	cfg config.ScannerConfig,
	log *logger.Logger,
) *TriggerScanner {
	return &TriggerScanner{
		alerts:    alerts,
		checks:    checks,
		schedules: schedules,
		tenants:   tenants,
		probes:    probes,
		notify:    notify,
		cfg:       cfg,
		logger:    log,
	}
}

// Start schedules the scan cadences and blocks until ctx is cancelled.
// SkipIfStillRunning keeps a slow cycle from piling up behind itself; the
// cross-node exclusion is the persisted schedule lock, not this.
func (s *TriggerScanner) Start(ctx context.Context) error {
	s.logger.WithFields(map[string]interface{}{
		"node_id":  s.cfg.NodeID,
		"interval": s.cfg.ScanInterval.String(),
	}).Info("Starting trigger scanner worker")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	spec := fmt.Sprintf("@every %s", s.cfg.ScanInterval)
	if _, err := s.cron.AddFunc(spec, func() { s.ScanOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule scan cycle: %w", err)
	}

	// First cycle immediately, then on cadence
	s.ScanOnce(ctx)
	s.cron.Start()

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Trigger scanner worker stopped")
	return nil
}

// ScanOnce runs one full scan cycle across all tenants. A failure in one
// tenant or one schedule is logged and never halts the rest of the cycle.
func (s *TriggerScanner) ScanOnce(ctx context.Context) {
	start := time.Now()

	tenantIDs, err := s.tenants.TenantIDs(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to enumerate tenants for scan")
		return
	}

	failing := 0
	statusCounts := make(map[string]int)

	for _, tenantID := range tenantIDs {
		sys := actor.System(tenantID, s.cfg.NodeID)
		s.runDueSchedules(ctx, sys)
		s.escalateStaleAlerts(ctx, sys)
		s.notifyNewAlerts(ctx, sys)

		if checks, err := s.checks.ListFailing(ctx, sys); err == nil {
			failing += len(checks)
		}
		if summary, err := s.alerts.GetSummary(ctx, sys); err == nil {
			for status, n := range summary {
				statusCounts[status] += n
			}
		}
	}

	metrics.SetFailingChecks(float64(failing))
	for _, status := range []string{alert.StatusPending, alert.StatusAcknowledged, alert.StatusEscalated, alert.StatusSuppressed} {
		metrics.SetActiveAlerts(status, float64(statusCounts[status]))
	}
	metrics.RecordScanCycle(time.Since(start))
}

// runDueSchedules executes every due schedule this node can claim
func (s *TriggerScanner) runDueSchedules(ctx context.Context, sys actor.Actor) {
	due, err := s.schedules.ListDue(ctx, sys, time.Now())
	if err != nil {
		s.logger.WithError(err).With("tenant_id", sys.TenantID).Error("Failed to list due schedules")
		return
	}

	for _, ps := range due {
		if err := s.runSchedule(ctx, sys, ps); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"tenant_id":   sys.TenantID,
				"schedule_id": ps.ID,
			}).ErrorWithErr(err, "Schedule run failed")
		}
	}
}

// runSchedule claims one schedule, runs the tenant's due checks under it,
// and records the aggregate outcome. Contention is a skip, not a failure:
// another node is already on it and the next cycle retries.
func (s *TriggerScanner) runSchedule(ctx context.Context, sys actor.Actor, ps *schedule.PollingSchedule) error {
	token, err := s.schedules.AcquireLock(ctx, sys, ps.ID, s.cfg.NodeID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeLockContention) {
			metrics.RecordLockContention()
			s.logger.WithFields(map[string]interface{}{
				"schedule_id": ps.ID,
				"tenant_id":   sys.TenantID,
			}).Debug("Schedule locked by another node, skipping")
			return nil
		}
		return err
	}
	defer func() {
		if err := s.schedules.ReleaseLock(ctx, sys, ps.ID, token); err != nil {
			s.logger.WithError(err).With("schedule_id", ps.ID).Warn("Failed to release schedule lock")
		}
	}()

	checkCount, successCount, failureCount := s.runDueChecks(ctx, sys)

	if _, err := s.schedules.MarkExecuted(ctx, sys, ps.ID); err != nil {
		return err
	}

	result := schedule.ResultSuccess
	switch {
	case checkCount > 0 && failureCount == checkCount:
		result = schedule.ResultFailed
	case failureCount > 0:
		result = schedule.ResultPartial
	}

	_, err = s.schedules.RecordResult(ctx, sys, ps.ID, schedule.ResultInput{
		Result:       result,
		CheckCount:   checkCount,
		SuccessCount: successCount,
		FailureCount: failureCount,
	})
	return err
}

// runDueChecks probes every due check in the tenant and records outcomes.
// Checks without a local prober are only marked executed; their results
// arrive from external agents.
func (s *TriggerScanner) runDueChecks(ctx context.Context, sys actor.Actor) (checkCount, successCount, failureCount int) {
	dueChecks, err := s.checks.ListDue(ctx, sys, time.Now())
	if err != nil {
		s.logger.WithError(err).With("tenant_id", sys.TenantID).Error("Failed to list due checks")
		return 0, 0, 0
	}

	for _, sc := range dueChecks {
		if !s.probes.Supports(sc.CheckType) {
			if _, err := s.checks.MarkExecuted(ctx, sys, sc.ID); err != nil {
				s.logger.WithError(err).With("check_id", sc.ID).Error("Failed to mark check executed")
			}
			continue
		}

		outcome := s.probes.Run(ctx, sc)
		checkCount++
		metrics.RecordCheckExecution(sc.CheckType, outcome.Result, time.Duration(outcome.ResponseTimeMS)*time.Millisecond)

		updated, err := s.checks.RecordResult(ctx, sys, sc.ID, check.ResultInput{
			Result:         outcome.Result,
			ResponseTimeMS: &outcome.ResponseTimeMS,
			Error:          outcome.Error,
		})
		if err != nil {
			s.logger.WithError(err).With("check_id", sc.ID).Error("Failed to record check result")
			failureCount++
			continue
		}

		if check.SuccessLike(outcome.Result) {
			successCount++
			continue
		}
		failureCount++

		// Raise an alert once the failure streak reaches the check's retry
		// budget. >= rather than == so a budget lowered mid-streak still
		// produces an alert; the duplicate guard in triggerCheckAlert keeps
		// the ongoing streak from flooding the alert table
		if updated.ConsecutiveFailures >= updated.Retries {
			s.triggerCheckAlert(ctx, sys, updated, outcome)
		}
	}

	return checkCount, successCount, failureCount
}

// triggerCheckAlert raises an alert for a failing check unless one is
// already active for it. The source match is what bounds alert volume: one
// active alert per failing check, however long the streak runs.
func (s *TriggerScanner) triggerCheckAlert(ctx context.Context, sys actor.Actor, sc *check.ServiceCheck, outcome probe.Outcome) {
	active, err := s.alerts.ListActive(ctx, sys)
	if err != nil {
		s.logger.WithError(err).With("check_id", sc.ID).Error("Failed to list active alerts")
		return
	}
	for _, a := range active {
		if a.SourceType == "service_check" && a.SourceID == sc.ID {
			return
		}
	}

	severity := alert.SeverityCritical
	if outcome.Result == check.ResultWarning {
		severity = alert.SeverityWarning
	}

	_, err = s.alerts.Trigger(ctx, sys, alert.TriggerInput{
		Title:      fmt.Sprintf("Check %s failing: %s", sc.Name, outcome.Result),
		Severity:   severity,
		SourceType: "service_check",
		SourceID:   sc.ID,
		SourceName: sc.Name,
	})
	if err != nil {
		s.logger.WithError(err).With("check_id", sc.ID).Error("Failed to trigger alert for failing check")
		return
	}

	metrics.RecordAlertTriggered(severity)
	s.logger.WithFields(map[string]interface{}{
		"check_id":  sc.ID,
		"tenant_id": sys.TenantID,
		"failures":  sc.ConsecutiveFailures,
	}).Warn("Alert triggered for failing check")
}

// escalateStaleAlerts bumps pending alerts nobody acknowledged in time
func (s *TriggerScanner) escalateStaleAlerts(ctx context.Context, sys actor.Actor) {
	if s.cfg.EscalateAfter <= 0 {
		return
	}

	cutoff := time.Now().Add(-s.cfg.EscalateAfter)
	stale, err := s.alerts.ListPending(ctx, sys, cutoff)
	if err != nil {
		s.logger.WithError(err).With("tenant_id", sys.TenantID).Error("Failed to list stale pending alerts")
		return
	}

	for _, a := range stale {
		reason := fmt.Sprintf("unacknowledged for %s", s.cfg.EscalateAfter)
		if _, err := s.alerts.Escalate(ctx, sys, a.ID, reason); err != nil {
			// A concurrent acknowledge or another node's escalation got
			// there first; both leave the alert in good hands
			if errors.IsCode(err, errors.ErrCodeInvalidTransition) || errors.IsCode(err, errors.ErrCodeStaleRecord) {
				continue
			}
			s.logger.WithError(err).With("alert_id", a.ID).Error("Failed to escalate alert")
		}
	}
}

// notifyNewAlerts delivers first notifications for alerts that have none
func (s *TriggerScanner) notifyNewAlerts(ctx context.Context, sys actor.Actor) {
	pending, err := s.alerts.ListNeedingNotification(ctx, sys)
	if err != nil {
		s.logger.WithError(err).With("tenant_id", sys.TenantID).Error("Failed to list alerts needing notification")
		return
	}

	for _, a := range pending {
		if err := s.notify.Notify(ctx, a); err != nil {
			// Leave the counter at zero so the next cycle retries delivery
			metrics.RecordNotification("failed")
			s.logger.WithError(err).With("alert_id", a.ID).Warn("Alert notification failed, will retry next cycle")
			continue
		}
		metrics.RecordNotification("delivered")
		if _, err := s.alerts.SendNotification(ctx, sys, a.ID); err != nil {
			s.logger.WithError(err).With("alert_id", a.ID).Error("Failed to record notification")
		}
	}
}
