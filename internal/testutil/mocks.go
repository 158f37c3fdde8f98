package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
)

// The mocks mirror the storage layer's concurrency semantics: tenant-scoped
// lookups, the alert version check, and the conditional lock writes all
// behave like their SQL counterparts so service tests exercise the real
// failure paths. All mocks are safe for concurrent use.

// MockAlertRepository is a mock implementation of alert.Repository
type MockAlertRepository struct {
	mu          sync.Mutex
	Alerts      map[string]*alert.Alert
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		Alerts: make(map[string]*alert.Alert),
	}
}

func copyAlert(a *alert.Alert) *alert.Alert {
	c := *a
	return &c
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Version == 0 {
		a.Version = 1
	}
	m.Alerts[a.ID] = copyAlert(a)
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, tenantID int64, id string) (*alert.Alert, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok || a.TenantID != tenantID {
		return nil, errors.NotFound("Alert")
	}
	return copyAlert(a), nil
}

func (m *MockAlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Alerts[a.ID]
	if !ok || stored.TenantID != a.TenantID {
		return errors.NotFound("Alert")
	}
	if stored.Version != a.Version {
		return errors.StaleRecord("Alert")
	}
	a.Version++
	a.UpdatedAt = time.Now()
	m.Alerts[a.ID] = copyAlert(a)
	return nil
}

func (m *MockAlertRepository) List(ctx context.Context, tenantID int64, filter alert.Filter) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.SourceType != "" && a.SourceType != filter.SourceType {
			continue
		}
		result = append(result, copyAlert(a))
	}
	return result, nil
}

func (m *MockAlertRepository) ListWithPagination(ctx context.Context, tenantID int64, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	all, err := m.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MockAlertRepository) CountByStatus(ctx context.Context, tenantID int64) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range m.Alerts {
		if a.TenantID == tenantID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *MockAlertRepository) ListPending(ctx context.Context, tenantID int64, triggeredBefore time.Time) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && a.Status == alert.StatusPending && a.TriggeredAt.Before(triggeredBefore) {
			result = append(result, copyAlert(a))
		}
	}
	return result, nil
}

func (m *MockAlertRepository) ListActive(ctx context.Context, tenantID int64) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && a.Status != alert.StatusResolved {
			result = append(result, copyAlert(a))
		}
	}
	return result, nil
}

func (m *MockAlertRepository) ListNeedingNotification(ctx context.Context, tenantID int64) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && a.NotificationCount == 0 &&
			(a.Status == alert.StatusPending || a.Status == alert.StatusEscalated) {
			result = append(result, copyAlert(a))
		}
	}
	return result, nil
}

func (m *MockAlertRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, a := range m.Alerts {
		if !seen[a.TenantID] {
			seen[a.TenantID] = true
			ids = append(ids, a.TenantID)
		}
	}
	return ids, nil
}

// MockCheckRepository is a mock implementation of check.Repository
type MockCheckRepository struct {
	mu          sync.Mutex
	Checks      map[string]*check.ServiceCheck
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockCheckRepository() *MockCheckRepository {
	return &MockCheckRepository{
		Checks: make(map[string]*check.ServiceCheck),
	}
}

func copyCheck(sc *check.ServiceCheck) *check.ServiceCheck {
	c := *sc
	return &c
}

func (m *MockCheckRepository) Create(ctx context.Context, sc *check.ServiceCheck) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	m.Checks[sc.ID] = copyCheck(sc)
	return nil
}

func (m *MockCheckRepository) GetByID(ctx context.Context, tenantID int64, id string) (*check.ServiceCheck, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.Checks[id]
	if !ok || sc.TenantID != tenantID {
		return nil, errors.NotFound("Service check")
	}
	return copyCheck(sc), nil
}

func (m *MockCheckRepository) Update(ctx context.Context, sc *check.ServiceCheck) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Checks[sc.ID]
	if !ok || stored.TenantID != sc.TenantID {
		return errors.NotFound("Service check")
	}
	sc.UpdatedAt = time.Now()
	m.Checks[sc.ID] = copyCheck(sc)
	return nil
}

func (m *MockCheckRepository) Delete(ctx context.Context, tenantID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.Checks[id]
	if !ok || sc.TenantID != tenantID {
		return errors.NotFound("Service check")
	}
	delete(m.Checks, id)
	return nil
}

func (m *MockCheckRepository) List(ctx context.Context, tenantID int64, filter check.Filter) ([]*check.ServiceCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*check.ServiceCheck
	for _, sc := range m.Checks {
		if sc.TenantID != tenantID {
			continue
		}
		if filter.CheckType != "" && sc.CheckType != filter.CheckType {
			continue
		}
		if filter.Enabled != nil && sc.Enabled != *filter.Enabled {
			continue
		}
		if filter.AgentID != "" && sc.AgentID != filter.AgentID {
			continue
		}
		result = append(result, copyCheck(sc))
	}
	return result, nil
}

func (m *MockCheckRepository) ListEnabled(ctx context.Context, tenantID int64) ([]*check.ServiceCheck, error) {
	enabled := true
	return m.List(ctx, tenantID, check.Filter{Enabled: &enabled})
}

func (m *MockCheckRepository) ListFailing(ctx context.Context, tenantID int64) ([]*check.ServiceCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*check.ServiceCheck
	for _, sc := range m.Checks {
		if sc.TenantID == tenantID && sc.ConsecutiveFailures > 0 {
			result = append(result, copyCheck(sc))
		}
	}
	return result, nil
}

func (m *MockCheckRepository) ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*check.ServiceCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*check.ServiceCheck
	for _, sc := range m.Checks {
		if sc.TenantID == tenantID && sc.DueAt(now) {
			result = append(result, copyCheck(sc))
		}
	}
	return result, nil
}

func (m *MockCheckRepository) ListByAgent(ctx context.Context, tenantID int64, agentID string) ([]*check.ServiceCheck, error) {
	return m.List(ctx, tenantID, check.Filter{AgentID: agentID})
}

func (m *MockCheckRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, sc := range m.Checks {
		if !seen[sc.TenantID] {
			seen[sc.TenantID] = true
			ids = append(ids, sc.TenantID)
		}
	}
	return ids, nil
}

// MockScheduleRepository is a mock implementation of schedule.Repository.
// AcquireLock and ReleaseLock run under one mutex so concurrent callers see
// the same winner-takes-all behavior as the conditional SQL writes.
type MockScheduleRepository struct {
	mu          sync.Mutex
	Schedules   map[string]*schedule.PollingSchedule
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{
		Schedules: make(map[string]*schedule.PollingSchedule),
	}
}

func copySchedule(ps *schedule.PollingSchedule) *schedule.PollingSchedule {
	c := *ps
	return &c
}

func (m *MockScheduleRepository) Create(ctx context.Context, ps *schedule.PollingSchedule) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	ps.CreatedAt = now
	ps.UpdatedAt = now
	m.Schedules[ps.ID] = copySchedule(ps)
	return nil
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, tenantID int64, id string) (*schedule.PollingSchedule, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.Schedules[id]
	if !ok || ps.TenantID != tenantID {
		return nil, errors.NotFound("Polling schedule")
	}
	return copySchedule(ps), nil
}

func (m *MockScheduleRepository) Update(ctx context.Context, ps *schedule.PollingSchedule) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Schedules[ps.ID]
	if !ok || stored.TenantID != ps.TenantID {
		return errors.NotFound("Polling schedule")
	}
	// Lock fields never travel through Update
	c := copySchedule(ps)
	c.LockToken = stored.LockToken
	c.LockedAt = stored.LockedAt
	c.LockedBy = stored.LockedBy
	c.UpdatedAt = time.Now()
	m.Schedules[ps.ID] = c
	return nil
}

func (m *MockScheduleRepository) Delete(ctx context.Context, tenantID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.Schedules[id]
	if !ok || ps.TenantID != tenantID {
		return errors.NotFound("Polling schedule")
	}
	delete(m.Schedules, id)
	return nil
}

func (m *MockScheduleRepository) List(ctx context.Context, tenantID int64, filter schedule.Filter) ([]*schedule.PollingSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*schedule.PollingSchedule
	for _, ps := range m.Schedules {
		if ps.TenantID != tenantID {
			continue
		}
		if filter.ScheduleType != "" && ps.ScheduleType != filter.ScheduleType {
			continue
		}
		if filter.Enabled != nil && ps.Enabled != *filter.Enabled {
			continue
		}
		result = append(result, copySchedule(ps))
	}
	return result, nil
}

func (m *MockScheduleRepository) ListDue(ctx context.Context, tenantID int64, now time.Time) ([]*schedule.PollingSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*schedule.PollingSchedule
	for _, ps := range m.Schedules {
		if ps.TenantID == tenantID && ps.DueAt(now) {
			result = append(result, copySchedule(ps))
		}
	}
	return result, nil
}

func (m *MockScheduleRepository) AcquireLock(ctx context.Context, tenantID int64, id string, nodeID string, staleAfter time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.Schedules[id]
	if !ok || ps.TenantID != tenantID {
		return "", errors.NotFound("Polling schedule")
	}
	now := time.Now()
	if ps.LockToken != "" && ps.LockedAt != nil && now.Sub(*ps.LockedAt) < staleAfter {
		return "", errors.LockContention("Polling schedule")
	}
	token := uuid.New().String()
	ps.LockToken = token
	ps.LockedAt = &now
	ps.LockedBy = nodeID
	return token, nil
}

func (m *MockScheduleRepository) ReleaseLock(ctx context.Context, tenantID int64, id string, lockToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.Schedules[id]
	if !ok || ps.TenantID != tenantID {
		return errors.NotFound("Polling schedule")
	}
	if ps.LockToken != lockToken {
		return errors.LockContention("Polling schedule")
	}
	ps.LockToken = ""
	ps.LockedAt = nil
	ps.LockedBy = ""
	return nil
}

func (m *MockScheduleRepository) TenantIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, ps := range m.Schedules {
		if !seen[ps.TenantID] {
			seen[ps.TenantID] = true
			ids = append(ids, ps.TenantID)
		}
	}
	return ids, nil
}

// MockEventRepository is a mock implementation of event.Repository
type MockEventRepository struct {
	mu          sync.Mutex
	Events      []*event.Event
	CreateError error
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{}
}

func copyEvent(ev *event.Event) *event.Event {
	c := *ev
	return &c
}

func (m *MockEventRepository) Create(ctx context.Context, ev *event.Event) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.CreatedAt = time.Now()
	m.Events = append(m.Events, copyEvent(ev))
	return nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, tenantID int64, id string) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.Events {
		if ev.ID == id && ev.TenantID == tenantID {
			return copyEvent(ev), nil
		}
	}
	return nil, errors.NotFound("Event")
}

func (m *MockEventRepository) List(ctx context.Context, tenantID int64, filter event.Filter, limit, offset int) ([]*event.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*event.Event
	for _, ev := range m.Events {
		if ev.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.MinSeverity != nil && ev.Severity < *filter.MinSeverity {
			continue
		}
		if filter.EventType != "" && ev.EventType != filter.EventType {
			continue
		}
		if filter.DeviceUID != "" && ev.DeviceUID != filter.DeviceUID {
			continue
		}
		if filter.AgentUID != "" && ev.AgentUID != filter.AgentUID {
			continue
		}
		if filter.Since != nil && ev.OccurredAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && ev.OccurredAt.After(*filter.Until) {
			continue
		}
		matched = append(matched, copyEvent(ev))
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
