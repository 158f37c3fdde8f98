package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/probegrid/probegrid/internal/domain/check"
)

// Outcome is the raw result of probing one target. Result uses the service
// check result vocabulary so it can be fed straight into RecordResult.
type Outcome struct {
	Result         string
	ResponseTimeMS int64
	Error          string
}

// Prober runs one service check against its target. Implementations must
// honor ctx cancellation; the executor wraps every run in the check's own
// timeout.
type Prober interface {
	Probe(ctx context.Context, sc *check.ServiceCheck) Outcome
}

// Runner dispatches checks to type-specific probers. Types without a prober
// (snmp, grpc, custom run through external agents) come back as skipped.
type Runner struct {
	httpClient *http.Client
	dialer     *net.Dialer
	resolver   *net.Resolver
}

// NewRunner creates a probe runner with shared transports
func NewRunner() *Runner {
	return &Runner{
		httpClient: &http.Client{
			// Per-probe deadlines come from the context; this is a hard upper
			// bound against checks configured with absurd timeouts
			Timeout: 5 * time.Minute,
		},
		dialer:   &net.Dialer{},
		resolver: net.DefaultResolver,
	}
}

// Supports reports whether the runner can probe the given check type itself
func (r *Runner) Supports(checkType string) bool {
	switch checkType {
	case check.TypeHTTP, check.TypeTCP, check.TypeDNS, check.TypePing:
		return true
	default:
		return false
	}
}

// Run probes the check's target with the check's own timeout bound. A probe
// that exceeds the bound yields a timeout outcome, which classifies as
// failure-like downstream.
func (r *Runner) Run(ctx context.Context, sc *check.ServiceCheck) Outcome {
	timeout := time.Duration(sc.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(check.DefaultTimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var outcome Outcome

	switch sc.CheckType {
	case check.TypeHTTP:
		outcome = r.probeHTTP(ctx, sc.Target)
	case check.TypeTCP, check.TypePing:
		outcome = r.probeTCP(ctx, sc.Target)
	case check.TypeDNS:
		outcome = r.probeDNS(ctx, sc.Target)
	default:
		return Outcome{Result: check.ResultError, Error: fmt.Sprintf("no local prober for check type %q", sc.CheckType)}
	}

	outcome.ResponseTimeMS = time.Since(start).Milliseconds()
	if ctx.Err() == context.DeadlineExceeded {
		outcome.Result = check.ResultTimeout
		outcome.Error = fmt.Sprintf("probe exceeded %ds timeout", sc.TimeoutSeconds)
	}

	return outcome
}

func (r *Runner) probeHTTP(ctx context.Context, target string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Result: check.ResultError, Error: err.Error()}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Outcome{Result: check.ResultError, Error: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return Outcome{Result: check.ResultError, Error: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return Outcome{Result: check.ResultWarning, Error: fmt.Sprintf("status %d", resp.StatusCode)}
	default:
		return Outcome{Result: check.ResultSuccess}
	}
}

func (r *Runner) probeTCP(ctx context.Context, target string) Outcome {
	conn, err := r.dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return Outcome{Result: check.ResultError, Error: err.Error()}
	}
	conn.Close()
	return Outcome{Result: check.ResultSuccess}
}

func (r *Runner) probeDNS(ctx context.Context, target string) Outcome {
	addrs, err := r.resolver.LookupHost(ctx, target)
	if err != nil {
		return Outcome{Result: check.ResultError, Error: err.Error()}
	}
	if len(addrs) == 0 {
		return Outcome{Result: check.ResultError, Error: "no addresses resolved"}
	}
	return Outcome{Result: check.ResultSuccess}
}
