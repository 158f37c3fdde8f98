package schedule

import (
	"time"
)

// PollingSchedule represents recurring polling work shared by a fleet of
// executor nodes. The three lock fields are set and cleared together; they
// are the only cross-node shared mutable state in the system, and all
// transitions on them happen through conditional writes at the storage
// layer.
type PollingSchedule struct {
	ID                  string     `json:"id"`
	TenantID            int64      `json:"tenant_id"`
	Name                string     `json:"name"`
	ScheduleType        string     `json:"schedule_type"`
	IntervalSeconds     int        `json:"interval_seconds"`
	Enabled             bool       `json:"enabled"`
	LastExecutedAt      *time.Time `json:"last_executed_at,omitempty"`
	ExecutionCount      int64      `json:"execution_count"`
	LastResult          string     `json:"last_result,omitempty"`
	LastCheckCount      int        `json:"last_check_count"`
	LastSuccessCount    int        `json:"last_success_count"`
	LastFailureCount    int        `json:"last_failure_count"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LockToken           string     `json:"lock_token,omitempty"`
	LockedAt            *time.Time `json:"locked_at,omitempty"`
	LockedBy            string     `json:"locked_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`
}

// Schedule types. Manual schedules are only ever run on demand and are never
// selected by the due-for-execution view.
const (
	TypeInterval = "interval"
	TypeManual   = "manual"
)

// Execution results. Partial counts as success-like: some checks failed but
// the run itself completed.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultWarning = "warning"
	ResultError   = "error"
	ResultFailed  = "failed"
	ResultTimeout = "timeout"
)

// ValidType checks if the schedule type is known
func ValidType(t string) bool {
	return t == TypeInterval || t == TypeManual
}

// SuccessLike classifies an execution result for consecutive-failure
// counting. Unlike service checks, partial runs reset the counter.
func SuccessLike(result string) bool {
	switch result {
	case ResultSuccess, ResultWarning, ResultPartial:
		return true
	default:
		return false
	}
}

// MarkExecuted stamps last_executed_at and increments the execution counter
func (s *PollingSchedule) MarkExecuted(now time.Time) {
	s.LastExecutedAt = &now
	s.ExecutionCount++
}

// RecordResult stores per-run check counts and updates the
// consecutive-failure counter.
func (s *PollingSchedule) RecordResult(result string, checkCount, successCount, failureCount int) {
	s.LastResult = result
	s.LastCheckCount = checkCount
	s.LastSuccessCount = successCount
	s.LastFailureCount = failureCount
	if SuccessLike(result) {
		s.ConsecutiveFailures = 0
	} else {
		s.ConsecutiveFailures++
	}
}

// IsLocked reports whether the schedule holds a fresh lock at the given
// instant. A lock older than staleAfter is treated as abandoned and does not
// count as held.
func (s *PollingSchedule) IsLocked(now time.Time, staleAfter time.Duration) bool {
	if s.LockedAt == nil {
		return false
	}
	return now.Sub(*s.LockedAt) < staleAfter
}

// StaleAfter computes the staleness window for this schedule's lock:
// factor times the schedule's own interval, with a configurable floor for
// short intervals.
func (s *PollingSchedule) StaleAfter(factor int, minWindow time.Duration) time.Duration {
	window := time.Duration(factor) * time.Duration(s.IntervalSeconds) * time.Second
	if window < minWindow {
		return minWindow
	}
	return window
}

// DueAt reports whether the schedule is eligible for automatic execution:
// enabled, interval-typed, and either never run or past its interval.
func (s *PollingSchedule) DueAt(now time.Time) bool {
	if !s.Enabled || s.ScheduleType != TypeInterval {
		return false
	}
	if s.LastExecutedAt == nil {
		return true
	}
	return now.Sub(*s.LastExecutedAt) >= time.Duration(s.IntervalSeconds)*time.Second
}

// Filter contains polling schedule filtering options
type Filter struct {
	ScheduleType string
	Enabled      *bool
}
