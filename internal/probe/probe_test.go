package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/probegrid/probegrid/internal/domain/check"
)

func TestRunner_HTTP(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantResult string
	}{
		{"healthy endpoint", http.StatusOK, check.ResultSuccess},
		{"client error", http.StatusNotFound, check.ResultWarning},
		{"server error", http.StatusInternalServerError, check.ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			runner := NewRunner()
			outcome := runner.Run(context.Background(), &check.ServiceCheck{
				CheckType:      check.TypeHTTP,
				Target:         srv.URL,
				TimeoutSeconds: 5,
			})

			if outcome.Result != tt.wantResult {
				t.Errorf("Run() result = %v, want %v (error: %s)", outcome.Result, tt.wantResult, outcome.Error)
			}
		})
	}
}

func TestRunner_HTTPTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer srv.Close()

	runner := NewRunner()
	outcome := runner.Run(context.Background(), &check.ServiceCheck{
		CheckType:      check.TypeHTTP,
		Target:         srv.URL,
		TimeoutSeconds: 1,
	})

	if outcome.Result != check.ResultTimeout {
		t.Errorf("Run() result = %v, want %v", outcome.Result, check.ResultTimeout)
	}
	if check.SuccessLike(outcome.Result) {
		t.Error("timeout outcome must classify as failure-like")
	}
}

func TestRunner_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	runner := NewRunner()

	outcome := runner.Run(context.Background(), &check.ServiceCheck{
		CheckType:      check.TypeTCP,
		Target:         ln.Addr().String(),
		TimeoutSeconds: 5,
	})
	if outcome.Result != check.ResultSuccess {
		t.Errorf("Run() against live listener = %v, want success (error: %s)", outcome.Result, outcome.Error)
	}

	ln.Close()
	outcome = runner.Run(context.Background(), &check.ServiceCheck{
		CheckType:      check.TypeTCP,
		Target:         ln.Addr().String(),
		TimeoutSeconds: 1,
	})
	if check.SuccessLike(outcome.Result) {
		t.Errorf("Run() against closed listener = %v, want failure-like", outcome.Result)
	}
}

func TestRunner_Unsupported(t *testing.T) {
	runner := NewRunner()

	if runner.Supports(check.TypeSNMP) {
		t.Error("Supports(snmp) = true, want false")
	}
	if !runner.Supports(check.TypeHTTP) {
		t.Error("Supports(http) = false, want true")
	}

	outcome := runner.Run(context.Background(), &check.ServiceCheck{
		CheckType:      check.TypeSNMP,
		Target:         "10.0.0.1",
		TimeoutSeconds: 1,
	})
	if outcome.Result != check.ResultError {
		t.Errorf("Run() on unsupported type = %v, want error", outcome.Result)
	}
}
