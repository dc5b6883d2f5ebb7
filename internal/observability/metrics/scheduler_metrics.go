package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeRule             = "rule"
	SchedulerErrorTypeDB               = "db"
	SchedulerErrorTypeUnknown          = "unknown"
)

const (
	SchedulerJobReasonDeadlineExceeded     = "deadline_exceeded"
	SchedulerJobReasonDBLockTimeout        = "db_lock_timeout"
	SchedulerJobReasonSerializationFailure = "serialization_failure"
	SchedulerJobReasonConstraint           = "constraint_violation"
	SchedulerJobReasonUnknown              = "unknown"
)

// SchedulerMetrics tracks the health of background reconciliation.
type SchedulerMetrics struct {
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobTimeouts   *prometheus.CounterVec
	jobErrors     *prometheus.CounterVec
	rowsCorrected *prometheus.CounterVec
	driftDetected *prometheus.GaugeVec
	runLoopLag    prometheus.Observer
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the process-wide scheduler metrics, labelled from cfg on first use.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest drops the process-wide instance so the next
// Scheduler call registers against the current default registerer.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "actorhub_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "actorhub_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "actorhub_scheduler_job_timeouts_total",
			Help:        "Scheduler jobs that hit their deadline.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "actorhub_scheduler_job_errors_total",
			Help:        "Scheduler job errors by low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		rowsCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "actorhub_reconcile_rows_corrected_total",
			Help:        "Denormalized counter rows rewritten by reconciliation.",
			ConstLabels: constLabels,
		}, []string{"counter"}),
		driftDetected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "actorhub_reconcile_drift_rows",
			Help:        "Rows whose stored counter differed from the recomputed value at the last check.",
			ConstLabels: constLabels,
		}, []string{"counter"}),
	}
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "actorhub_scheduler_runloop_lag_seconds",
		Help:        "Scheduler run loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})
	m.runLoopLag = runLoopLag

	registerer.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.jobTimeouts,
		m.jobErrors,
		m.rowsCorrected,
		m.driftDetected,
		runLoopLag,
	)
	return m
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

// IncJobError counts a failed job under its classified reason.
func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySchedulerJobReason(err)).Inc()
}

// AddRowsCorrected records reconciliation writes for one counter.
func (m *SchedulerMetrics) AddRowsCorrected(counter string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.rowsCorrected.WithLabelValues(counter).Add(float64(rows))
}

// SetDrift publishes the drift row count observed for one counter.
func (m *SchedulerMetrics) SetDrift(counter string, rows int) {
	if m == nil {
		return
	}
	m.driftDetected.WithLabelValues(counter).Set(float64(rows))
}

func (m *SchedulerMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil {
		return
	}
	m.runLoopLag.Observe(max(duration, 0).Seconds())
}

// ClassifySchedulerErrorType returns a low-cardinality error type for logging.
func ClassifySchedulerErrorType(err error) string {
	switch {
	case err == nil:
		return SchedulerErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return SchedulerErrorTypeDeadlineExceeded
	case rules.IsRuleError(err):
		return SchedulerErrorTypeRule
	case isDBError(err):
		return SchedulerErrorTypeDB
	default:
		return SchedulerErrorTypeUnknown
	}
}

// IsSchedulerErrorRetryable reports whether the next tick may succeed where this one failed.
func IsSchedulerErrorRetryable(err error) bool {
	if err == nil || rules.IsRuleError(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return isDBError(err)
}

// ClassifySchedulerJobReason maps scheduler job errors to low-cardinality reasons.
func ClassifySchedulerJobReason(err error) string {
	switch {
	case err == nil:
		return SchedulerJobReasonUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return SchedulerJobReasonDeadlineExceeded
	case hasPGCode(err, "55P03"):
		return SchedulerJobReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return SchedulerJobReasonSerializationFailure
	case errors.Is(err, rules.ErrConstraintViolation):
		return SchedulerJobReasonConstraint
	default:
		return SchedulerJobReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
