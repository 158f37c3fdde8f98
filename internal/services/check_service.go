package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

// CheckService implements check.Service
type CheckService struct {
	repo   check.Repository
	events event.Service
	logger *logger.Logger
}

// NewCheckService creates a new service check service
func NewCheckService(repo check.Repository, events event.Service, log *logger.Logger) check.Service {
	return &CheckService{
		repo:   repo,
		events: events,
		logger: log,
	}
}

func (s *CheckService) emit(ctx context.Context, act actor.Actor, sc *check.ServiceCheck, severity int, eventType, message string) {
	_, err := s.events.Record(ctx, act, event.RecordInput{
		Category:   event.CategoryCheck,
		Severity:   severity,
		EventType:  eventType,
		Message:    message,
		AgentUID:   sc.AgentID,
		SourceType: "service_check",
		SourceID:   sc.ID,
		SourceName: sc.Name,
	})
	if err != nil {
		s.logger.WithError(err).With("check_id", sc.ID).Error("Failed to record check event")
	}
}

// Create registers a new service check with defaults applied
func (s *CheckService) Create(ctx context.Context, act actor.Actor, input check.CreateInput) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to create service checks")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid service check", verrs)
	}

	sc := &check.ServiceCheck{
		ID:              uuid.New().String(),
		TenantID:        act.TenantID,
		Name:            input.Name,
		CheckType:       input.CheckType,
		Target:          input.Target,
		AgentID:         input.AgentID,
		Enabled:         true,
		IntervalSeconds: input.IntervalSeconds,
		TimeoutSeconds:  input.TimeoutSeconds,
		Retries:         input.Retries,
	}
	if sc.IntervalSeconds == 0 {
		sc.IntervalSeconds = check.DefaultIntervalSeconds
	}
	if sc.TimeoutSeconds == 0 {
		sc.TimeoutSeconds = check.DefaultTimeoutSeconds
	}
	if sc.Retries == 0 {
		sc.Retries = check.DefaultRetries
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create service check")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"check_id":  sc.ID,
		"tenant_id": sc.TenantID,
		"type":      sc.CheckType,
		"target":    sc.Target,
	}).Info("Service check created")

	s.emit(ctx, act, sc, event.SeverityInfo, "check.created", "Service check created: "+sc.Name)
	return sc, nil
}

// GetByID retrieves a service check by ID
func (s *CheckService) GetByID(ctx context.Context, act actor.Actor, id string) (*check.ServiceCheck, error) {
	return s.repo.GetByID(ctx, act.TenantID, id)
}

// Update modifies a service check's configuration
func (s *CheckService) Update(ctx context.Context, act actor.Actor, id string, input check.UpdateInput) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to update service checks")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid service check update", verrs)
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		sc.Name = *input.Name
	}
	if input.Target != nil {
		sc.Target = *input.Target
	}
	if input.AgentID != nil {
		sc.AgentID = *input.AgentID
	}
	if input.IntervalSeconds != nil {
		sc.IntervalSeconds = *input.IntervalSeconds
	}
	if input.TimeoutSeconds != nil {
		sc.TimeoutSeconds = *input.TimeoutSeconds
	}
	if input.Retries != nil {
		sc.Retries = *input.Retries
	}

	if err := s.repo.Update(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update service check")
		return nil, err
	}

	return sc, nil
}

// Delete removes a service check
func (s *CheckService) Delete(ctx context.Context, act actor.Actor, id string) error {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return errors.Forbidden("operator role required to delete service checks")
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, act.TenantID, id); err != nil {
		s.logger.ErrorWithErr(err, "Failed to delete service check")
		return err
	}

	s.emit(ctx, act, sc, event.SeverityInfo, "check.deleted", "Service check deleted: "+sc.Name)
	return nil
}

// List retrieves service checks with filters
func (s *CheckService) List(ctx context.Context, act actor.Actor, filter check.Filter) ([]*check.ServiceCheck, error) {
	return s.repo.List(ctx, act.TenantID, filter)
}

func (s *CheckService) setEnabled(ctx context.Context, act actor.Actor, id string, enabled bool) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to enable or disable service checks")
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	sc.Enabled = enabled
	if err := s.repo.Update(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update service check")
		return nil, err
	}

	state := "disabled"
	eventType := "check.disabled"
	if enabled {
		state = "enabled"
		eventType = "check.enabled"
	}
	s.logger.WithFields(map[string]interface{}{
		"check_id":  sc.ID,
		"tenant_id": sc.TenantID,
	}).Info("Service check " + state)
	s.emit(ctx, act, sc, event.SeverityInfo, eventType, "Service check "+state+": "+sc.Name)

	return sc, nil
}

// Enable turns a check on
func (s *CheckService) Enable(ctx context.Context, act actor.Actor, id string) (*check.ServiceCheck, error) {
	return s.setEnabled(ctx, act, id, true)
}

// Disable turns a check off
func (s *CheckService) Disable(ctx context.Context, act actor.Actor, id string) (*check.ServiceCheck, error) {
	return s.setEnabled(ctx, act, id, false)
}

// RecordResult stores a run outcome and updates failure counters
func (s *CheckService) RecordResult(ctx context.Context, act actor.Actor, id string, input check.ResultInput) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to record check results")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid check result", verrs)
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	sc.RecordResult(input.Result, input.ResponseTimeMS, input.Error, time.Now())

	if err := s.repo.Update(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record check result")
		return nil, err
	}

	severity := event.SeverityInfo
	if !check.SuccessLike(input.Result) {
		severity = event.SeverityError
	}
	s.emit(ctx, act, sc, severity, "check.result."+input.Result, "Check result "+input.Result+" for "+sc.Name)

	return sc, nil
}

// ResetFailures clears the consecutive-failure counter
func (s *CheckService) ResetFailures(ctx context.Context, act actor.Actor, id string) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to reset check failures")
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	sc.ResetFailures()
	if err := s.repo.Update(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to reset check failures")
		return nil, err
	}

	return sc, nil
}

// MarkExecuted stamps last_check_at without a result
func (s *CheckService) MarkExecuted(ctx context.Context, act actor.Actor, id string) (*check.ServiceCheck, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to mark checks executed")
	}

	sc, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	sc.MarkExecuted(time.Now())
	if err := s.repo.Update(ctx, sc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to mark check executed")
		return nil, err
	}

	return sc, nil
}

// ListFailing returns checks with at least one consecutive failure
func (s *CheckService) ListFailing(ctx context.Context, act actor.Actor) ([]*check.ServiceCheck, error) {
	return s.repo.ListFailing(ctx, act.TenantID)
}

// ListDue returns checks eligible to run at the given instant
func (s *CheckService) ListDue(ctx context.Context, act actor.Actor, now time.Time) ([]*check.ServiceCheck, error) {
	return s.repo.ListDue(ctx, act.TenantID, now)
}
