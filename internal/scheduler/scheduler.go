package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/reconcile"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

const jobPrefix = "reconcile_"

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Rules      *config.RulesHolder
	Reconciler *reconcile.Service
	Config     Config `optional:"true"`
}

// Scheduler runs one reconciliation job per enabled counter on a fixed cadence.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	rules      *config.RulesHolder
	reconciler counterRunner
}

type counterRunner interface {
	RunCounter(ctx context.Context, name string) (reconcile.CounterResult, error)
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Rules == nil || p.Reconciler == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		rules:      p.Rules,
		reconciler: p.Reconciler,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	counter string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.beginRun(ctx, name, counter)
	if owner {
		s.logRunStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.failures == 0 {
			run.fail()
		}
		s.logRunFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// a timed out job is retried on the next tick
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce reconciles every enabled counter once. A failing counter does not
// stop the others; their errors are joined.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	rules := s.rules.Get().Reconcile
	timeout := rules.JobTimeout
	if timeout <= 0 {
		timeout = config.DefaultRulesConfig().Reconcile.JobTimeout
	}

	for _, counter := range rules.Counters {
		name := jobPrefix + counter
		if !s.isJobEnabled(name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, name, counter, timeout, func(ctx context.Context) error {
			return s.reconcileCounter(ctx, counter)
		}))
	}
	return err
}

func (s *Scheduler) reconcileCounter(ctx context.Context, counter string) error {
	run := runFromContext(ctx)
	res, err := s.reconciler.RunCounter(ctx, counter)
	if err != nil {
		s.logRunError(ctx, run, "scheduler.reconcile.failed", err)
		return err
	}
	run.record(len(res.Drift), res.RowsCorrected)
	return nil
}

// RunForever ticks until ctx is done. The interval is re-read after each run
// so a reloaded rules file takes effect without a restart.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(interval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		if next := s.interval(); next != interval {
			s.log.Info("scheduler interval changed",
				zap.Duration("from", interval),
				zap.Duration("to", next),
			)
			interval = next
			ticker.Reset(interval)
		}
		nextRun = nextRun.Add(interval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	if s.cfg.RunInterval > 0 {
		return s.cfg.RunInterval
	}
	if d := s.rules.Get().Reconcile.Interval; d > 0 {
		return d
	}
	return DefaultConfig().FallbackInterval
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty means every job
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
