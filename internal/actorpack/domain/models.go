package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

// ActorPack is the trained model artifact of an identity. An identity owns at most one.
type ActorPack struct {
	ID               uuid.UUID            `json:"id" gorm:"primaryKey"`
	IdentityID       uuid.UUID            `json:"identity_id" gorm:"not null"`
	Name             string               `json:"name" gorm:"type:text;not null"`
	TrainingStatus   rules.TrainingStatus `json:"training_status" gorm:"type:text;not null"`
	TrainingProgress int                  `json:"training_progress" gorm:"not null"`
	TrainingError    *string              `json:"training_error,omitempty" gorm:"type:text"`
	QualityScore     *float64             `json:"quality_score,omitempty"`
	IsAvailable      bool                 `json:"is_available" gorm:"not null"`
	TotalDownloads   int64                `json:"total_downloads" gorm:"not null"`
	CreatedAt        time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time            `json:"updated_at" gorm:"not null"`
}

func (ActorPack) TableName() string { return "actor_packs" }

// IdentityDeletedError is stored on packs whose training was failed by an identity deletion.
const IdentityDeletedError = "Identity was deleted"
