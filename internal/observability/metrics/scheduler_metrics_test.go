package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  fmt.Errorf("reconcile: %w", context.DeadlineExceeded),
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "constraint",
			err:  rules.Constraint("chk_identities_total_revenue", "total_revenue must be >= 0"),
			want: SchedulerJobReasonConstraint,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	if IsSchedulerErrorRetryable(rules.Constraint("chk", "bad")) {
		t.Fatal("rule errors must not be retried")
	}
	if !IsSchedulerErrorRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("serialization failures should be retried")
	}
}

func TestRowsCorrectedAndDrift(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry, Config{ServiceName: "actorhub", Environment: "test"})

	m.AddRowsCorrected("total_licenses", 3)
	m.AddRowsCorrected("total_licenses", 0)
	m.SetDrift("total_revenue", 2)

	if got := testutil.ToFloat64(m.rowsCorrected.WithLabelValues("total_licenses")); got != 3 {
		t.Fatalf("expected 3 corrected rows, got %v", got)
	}
	if got := testutil.ToFloat64(m.driftDetected.WithLabelValues("total_revenue")); got != 2 {
		t.Fatalf("expected drift 2, got %v", got)
	}
}

func TestHTTPMetricsStatusClass(t *testing.T) {
	registry := prometheus.NewRegistry()
	h := newHTTPMetrics(registry, Config{})
	h.Observe("POST", "/api/v1/licenses", 422, 0)

	if got := testutil.ToFloat64(h.requests.WithLabelValues("POST", "/api/v1/licenses", "4xx")); got != 1 {
		t.Fatalf("expected one 4xx request, got %v", got)
	}
}
