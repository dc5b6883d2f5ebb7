package domain

import (
	"context"
	"errors"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

const CodeNotTrained = "actor_pack_not_trained"

type CreateActorPackRequest struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Name       string    `json:"name"`
}

type TransitionTrainingRequest struct {
	Status rules.TrainingStatus `json:"status"`
	// Error is kept when the run moves to FAILED.
	Error *string `json:"error"`
}

type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateActorPackRequest) (ActorPack, error)
	TransitionTraining(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, req TransitionTrainingRequest) (ActorPack, error)
	UpdateProgress(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, progress int) (ActorPack, error)
	SetQualityScore(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, score *float64) (ActorPack, error)
	SetAvailability(ctx context.Context, actorID *uuid.UUID, id uuid.UUID, available bool) (ActorPack, error)
	Get(ctx context.Context, id uuid.UUID) (ActorPack, error)
}

var (
	ErrNotFound         = errors.New("actor_pack_not_found")
	ErrIdentityNotFound = errors.New("identity_not_found")
	ErrAlreadyExists    = errors.New("actor_pack_already_exists")
	ErrInvalidName      = errors.New("invalid_name")
)
