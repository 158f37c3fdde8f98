package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

// ScheduleService implements schedule.Service. Lock staleness policy lives
// here: the repository receives a concrete window computed from the
// schedule's own interval and the configured factor and floor.
type ScheduleService struct {
	repo            schedule.Repository
	events          event.Service
	logger          *logger.Logger
	lockStaleFactor int
	lockStaleMin    time.Duration
}

// NewScheduleService creates a new polling schedule service
func NewScheduleService(repo schedule.Repository, events event.Service, cfg config.ScannerConfig, log *logger.Logger) schedule.Service {
	return &ScheduleService{
		repo:            repo,
		events:          events,
		logger:          log,
		lockStaleFactor: cfg.LockStaleFactor,
		lockStaleMin:    cfg.LockStaleMin,
	}
}

func (s *ScheduleService) emit(ctx context.Context, act actor.Actor, ps *schedule.PollingSchedule, severity int, eventType, message string) {
	_, err := s.events.Record(ctx, act, event.RecordInput{
		Category:   event.CategoryPoller,
		Severity:   severity,
		EventType:  eventType,
		Message:    message,
		SourceType: "polling_schedule",
		SourceID:   ps.ID,
		SourceName: ps.Name,
	})
	if err != nil {
		s.logger.WithError(err).With("schedule_id", ps.ID).Error("Failed to record schedule event")
	}
}

// Create registers a new polling schedule
func (s *ScheduleService) Create(ctx context.Context, act actor.Actor, input schedule.CreateInput) (*schedule.PollingSchedule, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to create polling schedules")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid polling schedule", verrs)
	}
	if input.ScheduleType == schedule.TypeInterval && input.IntervalSeconds <= 0 {
		return nil, errors.BadRequest("interval schedules require interval_seconds")
	}

	ps := &schedule.PollingSchedule{
		ID:              uuid.New().String(),
		TenantID:        act.TenantID,
		Name:            input.Name,
		ScheduleType:    input.ScheduleType,
		IntervalSeconds: input.IntervalSeconds,
		Enabled:         true,
	}

	if err := s.repo.Create(ctx, ps); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create polling schedule")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule_id": ps.ID,
		"tenant_id":   ps.TenantID,
		"type":        ps.ScheduleType,
	}).Info("Polling schedule created")

	s.emit(ctx, act, ps, event.SeverityInfo, "poller.schedule_created", "Polling schedule created: "+ps.Name)
	return ps, nil
}

// GetByID retrieves a schedule by ID
func (s *ScheduleService) GetByID(ctx context.Context, act actor.Actor, id string) (*schedule.PollingSchedule, error) {
	return s.repo.GetByID(ctx, act.TenantID, id)
}

// List retrieves schedules with filters
func (s *ScheduleService) List(ctx context.Context, act actor.Actor, filter schedule.Filter) ([]*schedule.PollingSchedule, error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

// Delete removes a schedule
func (s *ScheduleService) Delete(ctx context.Context, act actor.Actor, id string) error {
	if !act.Role.AtLeast(actor.RoleAdmin) {
		return errors.Forbidden("admin role required to delete polling schedules")
	}

	ps, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, act.TenantID, id); err != nil {
		s.logger.ErrorWithErr(err, "Failed to delete polling schedule")
		return err
	}

	s.emit(ctx, act, ps, event.SeverityInfo, "poller.schedule_deleted", "Polling schedule deleted: "+ps.Name)
	return nil
}

func (s *ScheduleService) setEnabled(ctx context.Context, act actor.Actor, id string, enabled bool) (*schedule.PollingSchedule, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to enable or disable polling schedules")
	}

	ps, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	ps.Enabled = enabled
	if err := s.repo.Update(ctx, ps); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update polling schedule")
		return nil, err
	}

	state := "disabled"
	eventType := "poller.schedule_disabled"
	if enabled {
		state = "enabled"
		eventType = "poller.schedule_enabled"
	}
	s.emit(ctx, act, ps, event.SeverityInfo, eventType, "Polling schedule "+state+": "+ps.Name)

	return ps, nil
}

// Enable turns a schedule on
func (s *ScheduleService) Enable(ctx context.Context, act actor.Actor, id string) (*schedule.PollingSchedule, error) {
	return s.setEnabled(ctx, act, id, true)
}

// Disable turns a schedule off
func (s *ScheduleService) Disable(ctx context.Context, act actor.Actor, id string) (*schedule.PollingSchedule, error) {
	return s.setEnabled(ctx, act, id, false)
}

// MarkExecuted stamps last_executed_at and bumps the execution counter
func (s *ScheduleService) MarkExecuted(ctx context.Context, act actor.Actor, id string) (*schedule.PollingSchedule, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to mark schedules executed")
	}

	ps, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	ps.MarkExecuted(time.Now())
	if err := s.repo.Update(ctx, ps); err != nil {
		s.logger.ErrorWithErr(err, "Failed to mark schedule executed")
		return nil, err
	}

	return ps, nil
}

// RecordResult stores per-run counts and updates failure counters
func (s *ScheduleService) RecordResult(ctx context.Context, act actor.Actor, id string, input schedule.ResultInput) (*schedule.PollingSchedule, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to record schedule results")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid schedule result", verrs)
	}

	ps, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	ps.RecordResult(input.Result, input.CheckCount, input.SuccessCount, input.FailureCount)

	if err := s.repo.Update(ctx, ps); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record schedule result")
		return nil, err
	}

	severity := event.SeverityInfo
	if !schedule.SuccessLike(input.Result) {
		severity = event.SeverityError
	}
	s.emit(ctx, act, ps, severity, "poller.run."+input.Result, "Schedule run "+input.Result+" for "+ps.Name)

	return ps, nil
}

// ListDue returns schedules eligible for automatic execution
func (s *ScheduleService) ListDue(ctx context.Context, act actor.Actor, now time.Time) ([]*schedule.PollingSchedule, error) {
	return s.repo.ListDue(ctx, act.TenantID, now)
}

// AcquireLock claims a schedule for an executor node. The staleness window
// scales with the schedule's own interval so slow schedules are not
// reclaimed mid-run, while the floor protects very short intervals.
func (s *ScheduleService) AcquireLock(ctx context.Context, act actor.Actor, id string, nodeID string) (string, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return "", errors.Forbidden("operator role required to lock polling schedules")
	}
	if nodeID == "" {
		return "", errors.BadRequest("node id is required to acquire a schedule lock")
	}

	ps, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return "", err
	}

	staleAfter := ps.StaleAfter(s.lockStaleFactor, s.lockStaleMin)
	token, err := s.repo.AcquireLock(ctx, act.TenantID, id, nodeID, staleAfter)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule_id": id,
		"tenant_id":   act.TenantID,
		"node_id":     nodeID,
	}).Debug("Schedule lock acquired")

	return token, nil
}

// ReleaseLock releases a schedule previously claimed with the token
func (s *ScheduleService) ReleaseLock(ctx context.Context, act actor.Actor, id string, lockToken string) error {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return errors.Forbidden("operator role required to unlock polling schedules")
	}
	if lockToken == "" {
		return errors.BadRequest("lock token is required to release a schedule lock")
	}

	return s.repo.ReleaseLock(ctx, act.TenantID, id, lockToken)
}
