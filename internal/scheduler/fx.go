package scheduler

import (
	"context"

	"github.com/actorhub/actorhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

// NewScheduler starts the run loop with the app. In run-once mode it
// reconciles a single time and asks the app to shut down.
func NewScheduler(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			if cfg.ReconcileRunOnce {
				go func() {
					defer cancel()
					code := 0
					if err := sched.RunOnce(ctx); err != nil {
						log.Error("reconcile run failed", zap.Error(err))
						code = 1
					}
					_ = shutdowner.Shutdown(fx.ExitCode(code))
				}()
			} else {
				go sched.RunForever(ctx)
			}

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
