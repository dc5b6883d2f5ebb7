// Package reconcile recomputes denormalized counters from the usage and
// license rows and rewrites only the rows that drifted. Running it twice
// without intervening writes changes nothing the second time.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrUnknownCounter = errors.New("unknown_counter")

var Module = fx.Module("reconcile",
	fx.Provide(New),
)

// Drift is a row whose stored counter disagrees with its recomputation. It is
// a condition to correct, not a failure.
type Drift struct {
	Counter  string    `json:"counter"`
	Table    string    `json:"table"`
	EntityID uuid.UUID `json:"entity_id"`
	Stored   float64   `json:"stored"`
	Expected float64   `json:"expected"`
}

type CounterResult struct {
	Counter       string  `json:"counter"`
	Drift         []Drift `json:"drift"`
	RowsCorrected int64   `json:"rows_corrected"`
}

type Report struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Counters   []CounterResult `json:"counters"`
}

// RowsCorrected sums the rows rewritten across counters.
func (r Report) RowsCorrected() int64 {
	var total int64
	for _, c := range r.Counters {
		total += c.RowsCorrected
	}
	return total
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Rules   *config.RulesHolder
	Audit   auditdomain.Service
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	rules     *config.RulesHolder
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
	scheduler *obsmetrics.SchedulerMetrics
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reconcile"),
		clock:     p.Clock,
		rules:     p.Rules,
		audit:     p.Audit,
		metrics:   p.Metrics,
		scheduler: obsmetrics.Scheduler(),
	}
}

// Detect reports drift for the given counters, or every enabled counter when
// none are named, without writing anything.
func (s *Service) Detect(ctx context.Context, names ...string) ([]Drift, error) {
	if len(names) == 0 {
		names = s.rules.Get().Reconcile.Counters
	}

	var out []Drift
	for _, name := range names {
		c, err := lookup(name)
		if err != nil {
			return nil, err
		}
		drift, err := s.detect(ctx, s.db, c)
		if err != nil {
			return nil, err
		}
		s.scheduler.SetDrift(c.name, len(drift))
		out = append(out, drift...)
	}
	return out, nil
}

// Run reconciles every enabled counter. Counters stored on the same table
// correct the same rows, so they run one after another in one group; groups
// run concurrently up to the configured parallelism.
func (s *Service) Run(ctx context.Context) (Report, error) {
	cfg := s.rules.Get().Reconcile
	report := Report{StartedAt: s.clock.Now().UTC()}

	results := make([]CounterResult, len(cfg.Counters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallelism, 1))
	for _, group := range tableGroups(cfg.Counters) {
		g.Go(func() error {
			for _, i := range group {
				res, err := s.RunCounter(gctx, cfg.Counters[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Counter < results[j].Counter })
	report.Counters = results
	report.FinishedAt = s.clock.Now().UTC()
	return report, nil
}

// tableGroups partitions counter positions by the table they correct, keeping
// first-seen order. Unknown names get a group of their own and fail in RunCounter.
func tableGroups(names []string) [][]int {
	var groups [][]int
	byTable := map[string]int{}
	for i, name := range names {
		key := "?" + name
		if c, err := lookup(name); err == nil {
			key = c.table
		}
		g, ok := byTable[key]
		if !ok {
			g = len(groups)
			byTable[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// RunCounter detects and corrects one counter in a single transaction.
func (s *Service) RunCounter(ctx context.Context, name string) (CounterResult, error) {
	c, err := lookup(name)
	if err != nil {
		return CounterResult{}, err
	}

	res := CounterResult{Counter: c.name}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drift, err := s.detect(ctx, tx, c)
		if err != nil {
			return err
		}
		res.Drift = drift
		if len(drift) == 0 {
			return nil
		}

		result := tx.WithContext(ctx).Exec(c.correctSQL())
		if result.Error != nil {
			return result.Error
		}
		res.RowsCorrected = result.RowsAffected

		if !c.audited {
			return nil
		}
		for _, d := range drift {
			before := map[string]any{c.column: d.Stored}
			after := map[string]any{c.column: d.Expected}
			if err := s.audit.RecordUpdate(ctx, tx, nil, c.table, d.EntityID, before, after); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CounterResult{}, err
	}

	s.scheduler.SetDrift(c.name, len(res.Drift))
	s.scheduler.AddRowsCorrected(c.name, res.RowsCorrected)
	s.metrics.RecordDriftCorrected(ctx, c.name, res.RowsCorrected)
	if len(res.Drift) > 0 {
		s.log.Warn("counter drift corrected",
			zap.String("counter", c.name),
			zap.Int("drift_rows", len(res.Drift)),
			zap.Int64("rows_corrected", res.RowsCorrected),
		)
	}
	return res, nil
}

func (s *Service) detect(ctx context.Context, db *gorm.DB, c counter) ([]Drift, error) {
	var rows []struct {
		EntityID uuid.UUID
		Stored   float64
		Expected float64
	}
	if err := db.WithContext(ctx).Raw(c.detectSQL()).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Drift, 0, len(rows))
	for _, row := range rows {
		out = append(out, Drift{
			Counter:  c.name,
			Table:    c.table,
			EntityID: row.EntityID,
			Stored:   row.Stored,
			Expected: row.Expected,
		})
	}
	return out, nil
}
