package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

// AlertService implements alert.Service. Every lifecycle action follows the
// same shape: role check, tenant-scoped load, state-machine transition on
// the model, versioned write-back, event emission.
type AlertService struct {
	repo   alert.Repository
	events event.Service
	logger *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(repo alert.Repository, events event.Service, log *logger.Logger) alert.Service {
	return &AlertService{
		repo:   repo,
		events: events,
		logger: log,
	}
}

// eventSeverityFor maps an alert severity onto the event log's 0-4 scale
func eventSeverityFor(alertSeverity string) int {
	switch alertSeverity {
	case alert.SeverityInfo:
		return event.SeverityInfo
	case alert.SeverityWarning:
		return event.SeverityWarning
	case alert.SeverityCritical:
		return event.SeverityError
	case alert.SeverityEmergency:
		return event.SeverityCritical
	default:
		return event.SeverityInfo
	}
}

// emit appends an audit event for a lifecycle action. Failures are logged
// and swallowed: the transition already committed, and the audit trail must
// never roll it back.
func (s *AlertService) emit(ctx context.Context, act actor.Actor, a *alert.Alert, eventType, message string) {
	_, err := s.events.Record(ctx, act, event.RecordInput{
		Category:   event.CategoryAlert,
		Severity:   eventSeverityFor(a.Severity),
		EventType:  eventType,
		Message:    message,
		SourceType: "alert",
		SourceID:   a.ID,
		SourceName: a.Title,
	})
	if err != nil {
		s.logger.WithError(err).With("alert_id", a.ID).Error("Failed to record alert event")
	}
}

// Trigger raises a new alert in pending status
func (s *AlertService) Trigger(ctx context.Context, act actor.Actor, input alert.TriggerInput) (*alert.Alert, error) {
	if !act.Role.AtLeast(actor.RoleOperator) {
		return nil, errors.Forbidden("operator role required to trigger alerts")
	}

	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid alert", verrs)
	}

	now := time.Now()
	a := &alert.Alert{
		ID:          uuid.New().String(),
		TenantID:    act.TenantID,
		Title:       input.Title,
		Severity:    input.Severity,
		Status:      alert.StatusPending,
		SourceType:  input.SourceType,
		SourceID:    input.SourceID,
		SourceName:  input.SourceName,
		TriggeredAt: now,
		Version:     1,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create alert")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id":  a.ID,
		"tenant_id": a.TenantID,
		"severity":  a.Severity,
	}).Info("Alert triggered")

	s.emit(ctx, act, a, "alert.triggered", "Alert triggered: "+a.Title)
	return a, nil
}

// GetByID retrieves an alert by ID
func (s *AlertService) GetByID(ctx context.Context, act actor.Actor, id string) (*alert.Alert, error) {
	return s.repo.GetByID(ctx, act.TenantID, id)
}

// List retrieves alerts with filters and pagination
func (s *AlertService) List(ctx context.Context, act actor.Actor, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	return s.repo.ListWithPagination(ctx, act.TenantID, filter, limit, offset)
}

// GetSummary gets alert counts by status
func (s *AlertService) GetSummary(ctx context.Context, act actor.Actor) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, act.TenantID)
}

// transition loads the alert, applies fn, and writes it back under the
// optimistic version check. fn runs only after the role check passed.
func (s *AlertService) transition(ctx context.Context, act actor.Actor, id string, minRole actor.Role, action string, fn func(a *alert.Alert, now time.Time) error) (*alert.Alert, error) {
	if !act.Role.AtLeast(minRole) {
		return nil, errors.Forbidden(string(minRole) + " role required to " + action + " alerts")
	}

	a, err := s.repo.GetByID(ctx, act.TenantID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := fn(a, now); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.WithError(err).With("alert_id", id).Error("Failed to " + action + " alert")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id":  a.ID,
		"tenant_id": a.TenantID,
		"status":    a.Status,
		"actor":     act.Name,
	}).Info("Alert " + a.Status)

	return a, nil
}

// Acknowledge marks a pending alert as acknowledged by the actor
func (s *AlertService) Acknowledge(ctx context.Context, act actor.Actor, id string) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleOperator, "acknowledge", func(a *alert.Alert, now time.Time) error {
		return a.Acknowledge(act.Name, now)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.acknowledged", "Alert acknowledged by "+act.Name)
	return a, nil
}

// Resolve closes an alert with an optional resolution note
func (s *AlertService) Resolve(ctx context.Context, act actor.Actor, id string, note string) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleOperator, "resolve", func(a *alert.Alert, now time.Time) error {
		return a.Resolve(act.Name, note, now)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.resolved", "Alert resolved by "+act.Name)
	return a, nil
}

// Escalate raises the alert's escalation level
func (s *AlertService) Escalate(ctx context.Context, act actor.Actor, id string, reason string) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleAdmin, "escalate", func(a *alert.Alert, now time.Time) error {
		return a.Escalate(reason, now)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.escalated", "Alert escalated: "+reason)
	return a, nil
}

// Suppress silences an alert until the given time
func (s *AlertService) Suppress(ctx context.Context, act actor.Actor, id string, until time.Time) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleAdmin, "suppress", func(a *alert.Alert, now time.Time) error {
		return a.Suppress(until, now)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.suppressed", "Alert suppressed until "+until.Format(time.RFC3339))
	return a, nil
}

// Reopen returns a resolved or suppressed alert to pending
func (s *AlertService) Reopen(ctx context.Context, act actor.Actor, id string, reason string) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleAdmin, "reopen", func(a *alert.Alert, now time.Time) error {
		return a.Reopen(now)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.reopened", "Alert reopened: "+reason)
	return a, nil
}

// SendNotification records that a notification was dispatched
func (s *AlertService) SendNotification(ctx context.Context, act actor.Actor, id string) (*alert.Alert, error) {
	a, err := s.transition(ctx, act, id, actor.RoleOperator, "notify for", func(a *alert.Alert, now time.Time) error {
		a.RecordNotification(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, act, a, "alert.notified", "Alert notification recorded")
	return a, nil
}

// ListPending returns auto-escalation candidates
func (s *AlertService) ListPending(ctx context.Context, act actor.Actor, triggeredBefore time.Time) ([]*alert.Alert, error) {
	return s.repo.ListPending(ctx, act.TenantID, triggeredBefore)
}

// ListActive returns all non-resolved alerts
func (s *AlertService) ListActive(ctx context.Context, act actor.Actor) ([]*alert.Alert, error) {
	return s.repo.ListActive(ctx, act.TenantID)
}

// ListNeedingNotification returns alerts that have never been notified
func (s *AlertService) ListNeedingNotification(ctx context.Context, act actor.Actor) ([]*alert.Alert, error) {
	return s.repo.ListNeedingNotification(ctx, act.TenantID)
}
