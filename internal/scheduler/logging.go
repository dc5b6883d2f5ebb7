package scheduler

import (
	"context"
	"time"

	obscontext "github.com/actorhub/actorhub/internal/observability/context"
	obslogger "github.com/actorhub/actorhub/internal/observability/logger"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"go.uber.org/zap"
)

// reconcileRun tracks one reconciliation job from start to finish.
type reconcileRun struct {
	job       string
	counter   string
	runID     string
	startedAt time.Time
	drifted   int
	corrected int64
	failures  int
}

type reconcileRunKey struct{}

func (r *reconcileRun) record(drifted int, corrected int64) {
	if r == nil {
		return
	}
	r.drifted += drifted
	r.corrected += corrected
}

func (r *reconcileRun) fail() {
	if r != nil {
		r.failures++
	}
}

// beginRun attaches a run to ctx unless one is already there. The returned
// bool is true for the caller that created the run and must finish it.
func (s *Scheduler) beginRun(ctx context.Context, job, counter string) (context.Context, *reconcileRun, bool) {
	if existing := runFromContext(ctx); existing != nil {
		return ctx, existing, false
	}
	run := &reconcileRun{
		job:       job,
		counter:   counter,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, reconcileRunKey{}, run)
	// corrections made by the scheduler are system writes
	ctx = obscontext.WithActor(ctx, "system", "reconciler")
	return ctx, run, true
}

func runFromContext(ctx context.Context) *reconcileRun {
	run, _ := ctx.Value(reconcileRunKey{}).(*reconcileRun)
	return run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (r *reconcileRun) fields() []zap.Field {
	return []zap.Field{
		zap.String("job", r.job),
		zap.String("counter", r.counter),
		zap.String("run_id", r.runID),
	}
}

func (s *Scheduler) logRunStart(ctx context.Context, run *reconcileRun) {
	s.logger(ctx).Info("scheduler.job.start", run.fields()...)
}

func (s *Scheduler) logRunFinish(ctx context.Context, run *reconcileRun) {
	fields := append(run.fields(),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("drift_count", run.drifted),
		zap.Int64("rows_corrected", run.corrected),
		zap.Int("error_count", run.failures),
	)
	log := s.logger(ctx)
	switch {
	case run.failures > 0:
		log.Warn("scheduler.job.finish", fields...)
	case run.corrected > 0:
		// drift means some write path skipped its aggregate update
		log.Warn("scheduler.job.finish", append(fields, zap.Bool("drift_corrected", true))...)
	default:
		log.Info("scheduler.job.finish", fields...)
	}
}

func (s *Scheduler) logRunError(ctx context.Context, run *reconcileRun, msg string, err error) {
	if err == nil {
		return
	}
	run.fail()
	fields := []zap.Field{
		zap.String("error_type", obsmetrics.ClassifySchedulerErrorType(err)),
		zap.Bool("retryable", obsmetrics.IsSchedulerErrorRetryable(err)),
		zap.Error(err),
	}
	if run != nil {
		fields = append(run.fields(), fields...)
	}
	s.logger(ctx).Error(msg, fields...)
}
