package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

// EventService implements event.Service
type EventService struct {
	repo   event.Repository
	logger *logger.Logger
}

// NewEventService creates a new event service
func NewEventService(repo event.Repository, log *logger.Logger) event.Service {
	return &EventService{
		repo:   repo,
		logger: log,
	}
}

// Record appends an event stamped at the current time
func (s *EventService) Record(ctx context.Context, act actor.Actor, input event.RecordInput) (*event.Event, error) {
	return s.RecordAtTime(ctx, act, input, time.Now())
}

// RecordAtTime appends an event with an explicit occurrence time
func (s *EventService) RecordAtTime(ctx context.Context, act actor.Actor, input event.RecordInput, occurredAt time.Time) (*event.Event, error) {
	if verrs := validator.Validate(input); len(verrs) > 0 {
		return nil, errors.ValidationError("invalid event", verrs)
	}

	ev := &event.Event{
		ID:         uuid.New().String(),
		TenantID:   act.TenantID,
		Category:   input.Category,
		Severity:   input.Severity,
		EventType:  input.EventType,
		Message:    input.Message,
		OccurredAt: occurredAt,
		DeviceUID:  input.DeviceUID,
		AgentUID:   input.AgentUID,
		SourceType: input.SourceType,
		SourceID:   input.SourceID,
		SourceName: input.SourceName,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		TargetName: input.TargetName,
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record event")
		return nil, err
	}

	return ev, nil
}

// GetByID retrieves an event by ID
func (s *EventService) GetByID(ctx context.Context, act actor.Actor, id string) (*event.Event, error) {
	return s.repo.GetByID(ctx, act.TenantID, id)
}

// List retrieves events with filters, newest first
func (s *EventService) List(ctx context.Context, act actor.Actor, filter event.Filter, limit, offset int) ([]*event.Event, int64, error) {
	return s.repo.List(ctx, act.TenantID, filter, limit, offset)
}

// ListByCategory retrieves events in one category
func (s *EventService) ListByCategory(ctx context.Context, act actor.Actor, category string, limit, offset int) ([]*event.Event, int64, error) {
	if !event.ValidCategory(category) {
		return nil, 0, errors.BadRequest("unknown event category: " + category)
	}
	return s.repo.List(ctx, act.TenantID, event.Filter{Category: category}, limit, offset)
}

// ListBySeverity retrieves events at or above a minimum severity
func (s *EventService) ListBySeverity(ctx context.Context, act actor.Actor, minSeverity int, limit, offset int) ([]*event.Event, int64, error) {
	if !event.ValidSeverity(minSeverity) {
		return nil, 0, errors.BadRequest("event severity must be between 0 and 4")
	}
	return s.repo.List(ctx, act.TenantID, event.Filter{MinSeverity: &minSeverity}, limit, offset)
}

// ListByDevice retrieves events correlated with a device
func (s *EventService) ListByDevice(ctx context.Context, act actor.Actor, deviceUID string, limit, offset int) ([]*event.Event, int64, error) {
	return s.repo.List(ctx, act.TenantID, event.Filter{DeviceUID: deviceUID}, limit, offset)
}

// ListByAgent retrieves events correlated with an agent
func (s *EventService) ListByAgent(ctx context.Context, act actor.Actor, agentUID string, limit, offset int) ([]*event.Event, int64, error) {
	return s.repo.List(ctx, act.TenantID, event.Filter{AgentUID: agentUID}, limit, offset)
}

// ListRecent retrieves events from the last hour
func (s *EventService) ListRecent(ctx context.Context, act actor.Actor, limit, offset int) ([]*event.Event, int64, error) {
	since := time.Now().Add(-time.Hour)
	return s.repo.List(ctx, act.TenantID, event.Filter{Since: &since}, limit, offset)
}

// ListInRange retrieves events within a time window
func (s *EventService) ListInRange(ctx context.Context, act actor.Actor, since, until time.Time, limit, offset int) ([]*event.Event, int64, error) {
	if until.Before(since) {
		return nil, 0, errors.BadRequest("time range end precedes start")
	}
	return s.repo.List(ctx, act.TenantID, event.Filter{Since: &since, Until: &until}, limit, offset)
}
