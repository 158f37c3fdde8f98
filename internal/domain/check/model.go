package check

import (
	"time"
)

// ServiceCheck represents a recurring health check against a monitored
// target. The tracker only records outcomes; actually probing the target is
// the executor's job.
type ServiceCheck struct {
	ID                  string     `json:"id"`
	TenantID            int64      `json:"tenant_id"`
	Name                string     `json:"name"`
	CheckType           string     `json:"check_type"`
	Target              string     `json:"target"`
	AgentID             string     `json:"agent_id,omitempty"`
	Enabled             bool       `json:"enabled"`
	IntervalSeconds     int        `json:"interval_seconds"`
	TimeoutSeconds      int        `json:"timeout_seconds"`
	Retries             int        `json:"retries"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastCheckAt         *time.Time `json:"last_check_at,omitempty"`
	LastResult          string     `json:"last_result,omitempty"`
	LastResponseTimeMS  *int64     `json:"last_response_time_ms,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`
}

// Check types
const (
	TypePing   = "ping"
	TypeHTTP   = "http"
	TypeTCP    = "tcp"
	TypeSNMP   = "snmp"
	TypeGRPC   = "grpc"
	TypeDNS    = "dns"
	TypeCustom = "custom"
)

// Check results
const (
	ResultSuccess  = "success"
	ResultWarning  = "warning"
	ResultError    = "error"
	ResultCritical = "critical"
	ResultTimeout  = "timeout"
	ResultFailed   = "failed"
)

// Defaults applied on create when the caller leaves them zero
const (
	DefaultIntervalSeconds = 60
	DefaultTimeoutSeconds  = 10
	DefaultRetries         = 3
)

// ValidType checks if the check type is known
func ValidType(t string) bool {
	switch t {
	case TypePing, TypeHTTP, TypeTCP, TypeSNMP, TypeGRPC, TypeDNS, TypeCustom:
		return true
	default:
		return false
	}
}

// SuccessLike classifies a result for consecutive-failure counting. Success
// and warning reset the counter; every other result increments it.
func SuccessLike(result string) bool {
	switch result {
	case ResultSuccess, ResultWarning:
		return true
	default:
		return false
	}
}

// RecordResult stores the outcome of one check run and updates the
// consecutive-failure counter per the SuccessLike classification.
// last_check_at is stamped on every call regardless of outcome.
func (c *ServiceCheck) RecordResult(result string, responseTimeMS *int64, checkErr string, now time.Time) {
	c.LastCheckAt = &now
	c.LastResult = result
	c.LastResponseTimeMS = responseTimeMS
	c.LastError = checkErr
	if SuccessLike(result) {
		c.ConsecutiveFailures = 0
	} else {
		c.ConsecutiveFailures++
	}
}

// MarkExecuted stamps last_check_at without recording a result. The
// scheduler uses this as its "I ran this" marker.
func (c *ServiceCheck) MarkExecuted(now time.Time) {
	c.LastCheckAt = &now
}

// ResetFailures clears the consecutive-failure counter
func (c *ServiceCheck) ResetFailures() {
	c.ConsecutiveFailures = 0
}

// DueAt reports whether the check is due to run at the given instant:
// enabled, and either never run or its interval has elapsed.
func (c *ServiceCheck) DueAt(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.LastCheckAt == nil {
		return true
	}
	return now.Sub(*c.LastCheckAt) >= time.Duration(c.IntervalSeconds)*time.Second
}

// Filter contains service check filtering options
type Filter struct {
	CheckType string
	Enabled   *bool
	AgentID   string
}
