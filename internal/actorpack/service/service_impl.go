package service

import (
	"context"
	"fmt"
	"strings"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	table                = "actor_packs"
	defaultTrainingError = "Training failed"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Repo          actorpackdomain.Repository
	Identities    identitydomain.Repository
	Notifications notificationdomain.Service
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	repo          actorpackdomain.Repository
	identities    identitydomain.Repository
	notifications notificationdomain.Service
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) actorpackdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("actorpack.service"),
		clock:         p.Clock,
		repo:          p.Repo,
		identities:    p.Identities,
		notifications: p.Notifications,
		metrics:       p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req actorpackdomain.CreateActorPackRequest) (actorpackdomain.ActorPack, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return actorpackdomain.ActorPack{}, actorpackdomain.ErrInvalidName
	}

	now := s.clock.Now()
	pack := actorpackdomain.ActorPack{
		ID:             uuid.New(),
		IdentityID:     req.IdentityID,
		Name:           name,
		TrainingStatus: rules.TrainingPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.identities.FindByID(ctx, tx, req.IdentityID)
		if err != nil {
			return err
		}
		if identity == nil || identity.IsDeleted() {
			return actorpackdomain.ErrIdentityNotFound
		}
		existing, err := s.repo.FindByIdentity(ctx, tx, req.IdentityID)
		if err != nil {
			return err
		}
		if existing != nil {
			return actorpackdomain.ErrAlreadyExists
		}
		return rules.FromStore(s.repo.Insert(ctx, tx, &pack))
	})
	if err != nil {
		return actorpackdomain.ActorPack{}, err
	}

	s.metrics.RecordMutation(ctx, table, "insert")
	return pack, nil
}

// TransitionTraining moves the run along the training machine. COMPLETED pins
// progress at 100; re-queueing a failed run clears its error and progress.
func (s *Service) TransitionTraining(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req actorpackdomain.TransitionTrainingRequest) (actorpackdomain.ActorPack, error) {
	return s.mutate(ctx, actorID, id, func(pack *actorpackdomain.ActorPack) error {
		if err := rules.TrainingMachine.Check(pack.TrainingStatus, req.Status); err != nil {
			return err
		}
		if pack.TrainingStatus == req.Status {
			return nil
		}

		switch req.Status {
		case rules.TrainingCompleted:
			pack.TrainingProgress = 100
			pack.TrainingError = nil
		case rules.TrainingFailed:
			reason := defaultTrainingError
			if req.Error != nil && strings.TrimSpace(*req.Error) != "" {
				reason = strings.TrimSpace(*req.Error)
			}
			pack.TrainingError = &reason
		case rules.TrainingQueued:
			if pack.TrainingStatus == rules.TrainingFailed {
				pack.TrainingError = nil
				pack.TrainingProgress = 0
			}
		}
		pack.TrainingStatus = req.Status
		return nil
	}, func(tx *gorm.DB, before, after actorpackdomain.ActorPack) error {
		return s.notifyTrainingOutcome(ctx, tx, before, after)
	})
}

// notifyTrainingOutcome tells the identity owner that a run finished.
func (s *Service) notifyTrainingOutcome(ctx context.Context, tx *gorm.DB, before, after actorpackdomain.ActorPack) error {
	if before.TrainingStatus == after.TrainingStatus {
		return nil
	}
	if after.TrainingStatus != rules.TrainingCompleted && after.TrainingStatus != rules.TrainingFailed {
		return nil
	}
	identity, err := s.identities.FindByID(ctx, tx, after.IdentityID)
	if err != nil || identity == nil {
		return err
	}
	_, err = s.notifications.CreateTx(ctx, tx, notificationdomain.CreateRequest{
		UserID: identity.UserID,
		Type:   notificationdomain.TypeTrainingFinished,
		Title:  fmt.Sprintf("Training of %s finished: %s", after.Name, after.TrainingStatus),
		Body:   after.TrainingError,
		Payload: map[string]any{
			"actor_pack_id":   after.ID.String(),
			"training_status": string(after.TrainingStatus),
		},
	})
	return err
}

func (s *Service) UpdateProgress(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, progress int) (actorpackdomain.ActorPack, error) {
	return s.mutate(ctx, actorID, id, func(pack *actorpackdomain.ActorPack) error {
		if pack.TrainingStatus != rules.TrainingProcessing {
			return rules.BusinessRule("actor_pack_not_processing", "Training progress can only change while PROCESSING")
		}
		pack.TrainingProgress = progress
		return nil
	})
}

func (s *Service) SetQualityScore(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, score *float64) (actorpackdomain.ActorPack, error) {
	return s.mutate(ctx, actorID, id, func(pack *actorpackdomain.ActorPack) error {
		pack.QualityScore = score
		return nil
	})
}

// SetAvailability puts a trained pack on sale or withdraws it.
func (s *Service) SetAvailability(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, available bool) (actorpackdomain.ActorPack, error) {
	return s.mutate(ctx, actorID, id, func(pack *actorpackdomain.ActorPack) error {
		if available && pack.TrainingStatus != rules.TrainingCompleted {
			return rules.BusinessRule(actorpackdomain.CodeNotTrained, "Actor pack must finish training before it can be made available")
		}
		pack.IsAvailable = available
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, apply func(*actorpackdomain.ActorPack) error, after ...func(*gorm.DB, actorpackdomain.ActorPack, actorpackdomain.ActorPack) error) (actorpackdomain.ActorPack, error) {
	var updated actorpackdomain.ActorPack
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pack, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if pack == nil {
			return actorpackdomain.ErrNotFound
		}
		before := *pack
		if err := apply(pack); err != nil {
			return err
		}
		if err := validate(pack); err != nil {
			return err
		}
		pack.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, pack); err != nil {
			return rules.FromStore(err)
		}
		for _, fn := range after {
			if err := fn(tx, before, *pack); err != nil {
				return err
			}
		}
		updated = *pack
		return nil
	})
	if err != nil {
		if rules.IsRuleError(err) {
			s.log.Debug("actor pack update rejected",
				zap.String("actor_pack_id", id.String()),
				zap.Stringp("actor_id", actorString(actorID)),
				zap.Error(err),
			)
		}
		return actorpackdomain.ActorPack{}, err
	}

	s.metrics.RecordMutation(ctx, table, "update")
	return updated, nil
}

func validate(pack *actorpackdomain.ActorPack) error {
	v := rules.Validate(table).
		Between("training_progress", float64(pack.TrainingProgress), 0, 100).
		NonNegativeInt("total_downloads", pack.TotalDownloads)
	if pack.QualityScore != nil {
		v.Between("quality_score", *pack.QualityScore, 0, 100)
	}
	return v.Err()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (actorpackdomain.ActorPack, error) {
	pack, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return actorpackdomain.ActorPack{}, err
	}
	if pack == nil {
		return actorpackdomain.ActorPack{}, actorpackdomain.ErrNotFound
	}
	return *pack, nil
}

func actorString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}
