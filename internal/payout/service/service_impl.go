package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/clock"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/rules"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resourceType    = "payouts"
	referencePrefix = "po_"
	payoutCurrency  = "USD"
	defaultFailure  = "Payout failed"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Repo          payoutdomain.Repository
	Users         userdomain.Repository
	Transactions  transactiondomain.Repository
	Notifications notificationdomain.Service
	Audit         auditdomain.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	repo          payoutdomain.Repository
	users         userdomain.Repository
	transactions  transactiondomain.Repository
	notifications notificationdomain.Service
	audit         auditdomain.Service
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) payoutdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payout.service"),
		clock:         p.Clock,
		repo:          p.Repo,
		users:         p.Users,
		transactions:  p.Transactions,
		notifications: p.Notifications,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

// Request opens a PENDING payout for one period. The net amount is the
// amount less the fee.
func (s *Service) Request(ctx context.Context, actorID *uuid.UUID, req payoutdomain.RequestPayoutRequest) (payoutdomain.Payout, error) {
	period := strings.TrimSpace(req.Period)
	if _, err := time.Parse(payoutdomain.PeriodLayout, period); err != nil {
		return payoutdomain.Payout{}, payoutdomain.ErrInvalidPeriod
	}

	now := s.clock.Now()
	userID := req.UserID
	net := req.Amount - req.Fee
	payout := payoutdomain.Payout{
		ID:                 uuid.New(),
		UserID:             &userID,
		Reference:          referencePrefix + strings.ToLower(ulid.Make().String()),
		Period:             period,
		Amount:             req.Amount,
		Fee:                req.Fee,
		NetAmount:          &net,
		Status:             rules.PayoutPending,
		DestinationAccount: req.DestinationAccount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := payout.Validate(); err != nil {
		return payoutdomain.Payout{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.IsDeleted() {
			return payoutdomain.ErrUserNotFound
		}
		if err := s.repo.Insert(ctx, tx, &payout); err != nil {
			return rules.FromStore(err)
		}
		return s.audit.RecordInsert(ctx, tx, actorID, resourceType, payout.ID, payout)
	})
	if err != nil {
		return payoutdomain.Payout{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "insert")
	return payout, nil
}

// TransitionStatus moves the payout along its machine. COMPLETED stamps
// processed_at and books a PAYOUT transaction; COMPLETED and FAILED notify the
// user in the same transaction.
func (s *Service) TransitionStatus(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req payoutdomain.TransitionRequest) (payoutdomain.Payout, error) {
	var updated payoutdomain.Payout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payout, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return payoutdomain.ErrNotFound
		}
		if err := rules.PayoutMachine.Check(payout.Status, req.Status); err != nil {
			return err
		}
		if payout.Status == req.Status {
			updated = *payout
			return nil
		}
		before := *payout

		now := s.clock.Now()
		payout.Status = req.Status
		payout.UpdatedAt = now
		switch req.Status {
		case rules.PayoutCompleted:
			payout.ProcessedAt = &now
			payout.FailureReason = nil
		case rules.PayoutFailed:
			reason := defaultFailure
			if req.FailureReason != nil && strings.TrimSpace(*req.FailureReason) != "" {
				reason = strings.TrimSpace(*req.FailureReason)
			}
			payout.FailureReason = &reason
		case rules.PayoutPending:
			payout.FailureReason = nil
		}

		if err := payout.Validate(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, payout); err != nil {
			return rules.FromStore(err)
		}
		if err := s.audit.RecordUpdate(ctx, tx, actorID, resourceType, payout.ID, before, *payout); err != nil {
			return err
		}
		if err := s.settle(ctx, tx, payout, now); err != nil {
			return err
		}
		updated = *payout
		return nil
	})
	if err != nil {
		return payoutdomain.Payout{}, err
	}

	s.metrics.RecordMutation(ctx, resourceType, "update")
	return updated, nil
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, payout *payoutdomain.Payout, now time.Time) error {
	if payout.UserID == nil {
		return nil
	}

	switch payout.Status {
	case rules.PayoutCompleted:
		amount := payout.Amount
		if payout.NetAmount != nil {
			amount = *payout.NetAmount
		}
		ref := payout.Reference
		txn := transactiondomain.Transaction{
			ID:          uuid.New(),
			UserID:      payout.UserID,
			Type:        transactiondomain.TypePayout,
			Status:      rules.PaymentCompleted,
			Amount:      amount,
			Currency:    payoutCurrency,
			ProviderRef: &ref,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.transactions.Insert(ctx, tx, &txn); err != nil {
			return rules.FromStore(err)
		}
		_, err := s.notifications.CreateTx(ctx, tx, notificationdomain.CreateRequest{
			UserID: *payout.UserID,
			Type:   notificationdomain.TypePayoutCompleted,
			Title:  fmt.Sprintf("Payout for %s completed", payout.Period),
			Payload: map[string]any{
				"payout_id":  payout.ID.String(),
				"reference":  payout.Reference,
				"net_amount": amount,
			},
		})
		return err
	case rules.PayoutFailed:
		_, err := s.notifications.CreateTx(ctx, tx, notificationdomain.CreateRequest{
			UserID: *payout.UserID,
			Type:   notificationdomain.TypePayoutFailed,
			Title:  fmt.Sprintf("Payout for %s failed", payout.Period),
			Body:   payout.FailureReason,
			Payload: map[string]any{
				"payout_id": payout.ID.String(),
				"reference": payout.Reference,
			},
		})
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (payoutdomain.Payout, error) {
	payout, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return payoutdomain.Payout{}, err
	}
	if payout == nil {
		return payoutdomain.Payout{}, payoutdomain.ErrNotFound
	}
	return *payout, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]payoutdomain.Payout, error) {
	if userID == uuid.Nil {
		return nil, payoutdomain.ErrUserNotFound
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}
