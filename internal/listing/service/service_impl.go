package service

import (
	"context"
	"strings"

	"github.com/actorhub/actorhub/internal/clock"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const table = "listings"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       listingdomain.Repository
	Identities identitydomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       listingdomain.Repository
	identities identitydomain.Repository
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) listingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("listing.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		identities: p.Identities,
		metrics:    p.Metrics,
	}
}

// Create opens an active listing. An identity has at most one active listing.
func (s *Service) Create(ctx context.Context, actorID *uuid.UUID, req listingdomain.CreateListingRequest) (listingdomain.Listing, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return listingdomain.Listing{}, listingdomain.ErrInvalidTitle
	}

	now := s.clock.Now()
	id := uuid.New()
	listing := listingdomain.Listing{
		ID:          id,
		IdentityID:  req.IdentityID,
		Title:       title,
		Slug:        makeSlug(title, id),
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireLiveIdentity(ctx, tx, req.IdentityID); err != nil {
			return err
		}
		return rules.FromStore(s.repo.Insert(ctx, tx, &listing))
	})
	if err != nil {
		return listingdomain.Listing{}, err
	}

	s.metrics.RecordMutation(ctx, table, "insert")
	return listing, nil
}

func (s *Service) Activate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (listingdomain.Listing, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, actorID *uuid.UUID, id uuid.UUID) (listingdomain.Listing, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id uuid.UUID, active bool) (listingdomain.Listing, error) {
	var updated listingdomain.Listing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if listing == nil {
			return listingdomain.ErrNotFound
		}
		if active {
			if err := s.requireLiveIdentity(ctx, tx, listing.IdentityID); err != nil {
				return err
			}
		}
		listing.IsActive = active
		listing.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, listing); err != nil {
			return rules.FromStore(err)
		}
		updated = *listing
		return nil
	})
	if err != nil {
		return listingdomain.Listing{}, err
	}

	s.metrics.RecordMutation(ctx, table, "update")
	return updated, nil
}

func (s *Service) requireLiveIdentity(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) error {
	identity, err := s.identities.FindByID(ctx, tx, identityID)
	if err != nil {
		return err
	}
	if identity == nil {
		return listingdomain.ErrIdentityNotFound
	}
	if identity.IsDeleted() {
		return rules.BusinessRule(listingdomain.CodeIdentityDeleted, "Cannot list a deleted identity")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (listingdomain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return listingdomain.Listing{}, err
	}
	if listing == nil {
		return listingdomain.Listing{}, listingdomain.ErrNotFound
	}
	return *listing, nil
}

func makeSlug(title string, id uuid.UUID) string {
	suffix := id.String()[:8]
	base := slug.Make(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
