package service

import (
	"context"
	"strings"

	"github.com/actorhub/actorhub/internal/clock"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    transactiondomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    transactiondomain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) transactiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("transaction.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req transactiondomain.RecordRequest) (transactiondomain.Transaction, error) {
	now := s.clock.Now()
	txn := transactiondomain.Transaction{
		ID:          uuid.New(),
		UserID:      req.UserID,
		LicenseID:   req.LicenseID,
		Type:        transactiondomain.Type(strings.ToUpper(strings.TrimSpace(string(req.Type)))),
		Status:      rules.PaymentPending,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		ProviderRef: req.ProviderRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status != nil {
		txn.Status = *req.Status
	}
	if txn.Currency == "" {
		txn.Currency = defaultCurrency
	}
	if err := txn.Validate(); err != nil {
		return transactiondomain.Transaction{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &txn); err != nil {
		return transactiondomain.Transaction{}, rules.FromStore(err)
	}
	s.metrics.RecordMutation(ctx, "transactions", "create")
	return txn, nil
}

// UpdateStatus accepts any member of the status set; provider callbacks may
// arrive out of order, so no transition table applies.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status rules.PaymentStatus) (transactiondomain.Transaction, error) {
	if err := transactiondomain.Statuses.Validate(status); err != nil {
		return transactiondomain.Transaction{}, err
	}

	var out transactiondomain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.UpdateStatus(ctx, tx, id, status, s.clock.Now())
		if err != nil {
			return rules.FromStore(err)
		}
		if rows == 0 {
			return transactiondomain.ErrNotFound
		}
		updated, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if updated == nil {
			return transactiondomain.ErrNotFound
		}
		out = *updated
		return nil
	})
	if err != nil {
		return transactiondomain.Transaction{}, err
	}
	s.metrics.RecordMutation(ctx, "transactions", "update_status")
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transactiondomain.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return transactiondomain.Transaction{}, err
	}
	if txn == nil {
		return transactiondomain.Transaction{}, transactiondomain.ErrNotFound
	}
	return *txn, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]transactiondomain.Transaction, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
