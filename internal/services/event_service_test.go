package services

import (
	"context"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/testutil"
)

func newEventService(repo *testutil.MockEventRepository) event.Service {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewEventService(repo, log)
}

func TestEventService_Record(t *testing.T) {
	service := newEventService(testutil.NewMockEventRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   event.RecordInput
		wantErr bool
	}{
		{
			name: "check event",
			input: event.RecordInput{
				Category:  event.CategoryCheck,
				Severity:  event.SeverityError,
				EventType: "check.result.error",
				Message:   "HTTP check failed",
				AgentUID:  "agent-1",
			},
			wantErr: false,
		},
		{
			name: "audit event",
			input: event.RecordInput{
				Category:  event.CategoryAudit,
				Severity:  event.SeverityInfo,
				EventType: "alert.acknowledged",
				Message:   "Alert acknowledged",
			},
			wantErr: false,
		},
		{
			name: "unknown category",
			input: event.RecordInput{
				Category:  "weather",
				Severity:  event.SeverityInfo,
				EventType: "x",
				Message:   "y",
			},
			wantErr: true,
		},
		{
			name: "severity out of range",
			input: event.RecordInput{
				Category:  event.CategorySystem,
				Severity:  9,
				EventType: "x",
				Message:   "y",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := service.Record(ctx, opA, tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Record() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if ev.ID == "" {
				t.Error("Record() did not assign an id")
			}
			if ev.TenantID != opA.TenantID {
				t.Errorf("Record() tenant = %v, want %v", ev.TenantID, opA.TenantID)
			}
			if ev.OccurredAt.IsZero() {
				t.Error("Record() did not stamp occurred_at")
			}
		})
	}
}

func TestEventService_RecordAtTime(t *testing.T) {
	service := newEventService(testutil.NewMockEventRepository())
	ctx := context.Background()

	occurred := time.Now().Add(-45 * time.Minute)
	ev, err := service.RecordAtTime(ctx, opA, event.RecordInput{
		Category:  event.CategoryAgent,
		Severity:  event.SeverityWarning,
		EventType: "agent.reconnected",
		Message:   "Agent came back after an outage",
		AgentUID:  "agent-7",
	}, occurred)
	if err != nil {
		t.Fatalf("RecordAtTime() error = %v", err)
	}
	if !ev.OccurredAt.Equal(occurred) {
		t.Errorf("RecordAtTime() occurred_at = %v, want %v", ev.OccurredAt, occurred)
	}
}

func TestEventService_ReadViews(t *testing.T) {
	service := newEventService(testutil.NewMockEventRepository())
	ctx := context.Background()

	seed := []struct {
		input    event.RecordInput
		occurred time.Time
	}{
		{event.RecordInput{Category: event.CategoryCheck, Severity: event.SeverityInfo, EventType: "check.ok", Message: "ok", DeviceUID: "dev-1"}, time.Now().Add(-10 * time.Minute)},
		{event.RecordInput{Category: event.CategoryCheck, Severity: event.SeverityCritical, EventType: "check.down", Message: "down", DeviceUID: "dev-1", AgentUID: "agent-1"}, time.Now().Add(-30 * time.Minute)},
		{event.RecordInput{Category: event.CategoryAlert, Severity: event.SeverityError, EventType: "alert.triggered", Message: "alert"}, time.Now().Add(-3 * time.Hour)},
	}
	for _, s := range seed {
		if _, err := service.RecordAtTime(ctx, opA, s.input, s.occurred); err != nil {
			t.Fatalf("RecordAtTime() error = %v", err)
		}
	}

	byCategory, total, err := service.ListByCategory(ctx, opA, event.CategoryCheck, 50, 0)
	if err != nil {
		t.Fatalf("ListByCategory() error = %v", err)
	}
	if total != 2 || len(byCategory) != 2 {
		t.Errorf("ListByCategory(check) = %d/%d, want 2/2", len(byCategory), total)
	}

	_, total, err = service.ListBySeverity(ctx, opA, event.SeverityError, 50, 0)
	if err != nil {
		t.Fatalf("ListBySeverity() error = %v", err)
	}
	if total != 2 {
		t.Errorf("ListBySeverity(error) total = %d, want 2", total)
	}

	_, total, err = service.ListByDevice(ctx, opA, "dev-1", 50, 0)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if total != 2 {
		t.Errorf("ListByDevice(dev-1) total = %d, want 2", total)
	}

	_, total, err = service.ListByAgent(ctx, opA, "agent-1", 50, 0)
	if err != nil {
		t.Fatalf("ListByAgent() error = %v", err)
	}
	if total != 1 {
		t.Errorf("ListByAgent(agent-1) total = %d, want 1", total)
	}

	// Recent excludes the three-hour-old alert event
	_, total, err = service.ListRecent(ctx, opA, 50, 0)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if total != 2 {
		t.Errorf("ListRecent() total = %d, want 2", total)
	}

	_, total, err = service.ListInRange(ctx, opA, time.Now().Add(-4*time.Hour), time.Now().Add(-time.Hour), 50, 0)
	if err != nil {
		t.Fatalf("ListInRange() error = %v", err)
	}
	if total != 1 {
		t.Errorf("ListInRange() total = %d, want 1", total)
	}

	if _, _, err := service.ListInRange(ctx, opA, time.Now(), time.Now().Add(-time.Hour), 50, 0); !errors.IsCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("inverted ListInRange() error = %v, want BadRequest", err)
	}

	// Tenant isolation on reads
	_, total, err = service.List(ctx, opB, event.Filter{}, 50, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 0 {
		t.Errorf("cross-tenant List() total = %d, want 0", total)
	}
}

func TestEventService_DisplayHelpers(t *testing.T) {
	ev := &event.Event{Category: event.CategoryPoller, Severity: event.SeverityCritical}
	if ev.SeverityLabel() != "critical" {
		t.Errorf("SeverityLabel() = %v, want critical", ev.SeverityLabel())
	}
	if ev.SeverityColor() != "red" {
		t.Errorf("SeverityColor() = %v, want red", ev.SeverityColor())
	}
	if ev.CategoryLabel() != "Poller" {
		t.Errorf("CategoryLabel() = %v, want Poller", ev.CategoryLabel())
	}
}
