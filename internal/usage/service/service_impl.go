package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/actorhub/actorhub/internal/aggregate"
	"github.com/actorhub/actorhub/internal/clock"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/internal/rules"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/actorhub/actorhub/internal/usage/liveevents"
	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const table = "usage_logs"

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       usagedomain.Repository
	Aggregates *aggregate.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
	LiveEvents *liveevents.Hub     `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock      clock.Clock
	repo       usagedomain.Repository
	aggregates *aggregate.Service
	metrics    *obsmetrics.Metrics
	liveEvents *liveevents.Hub
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		clock:      p.Clock,
		repo:       p.Repo,
		aggregates: p.Aggregates,
		metrics:    p.Metrics,
		liveEvents: p.LiveEvents,
	}
}

func (s *Service) Record(ctx context.Context, req usagedomain.RecordUsageRequest) (*usagedomain.UsageLog, error) {
	if err := validateUsage(req); err != nil {
		return nil, err
	}

	idempotencyKey := normalizeIdempotencyKey(req.IdempotencyKey)

	// A retried key returns the stored row as-is and is never counted twice.
	if idempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, *idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.emitLiveUsageEvent(existing, liveevents.StatusDeduplicated)
			return existing, nil
		}
	}

	record := &usagedomain.UsageLog{
		ID:              uuid.New(),
		IdentityID:      req.IdentityID,
		ActorPackID:     req.ActorPackID,
		LicenseID:       req.LicenseID,
		UserID:          req.UserID,
		Action:          req.Action,
		Matched:         req.Matched,
		SimilarityScore: req.SimilarityScore,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       s.clock.Now(),
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	var existing *usagedomain.UsageLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.Insert(ctx, tx, record)
		if err != nil {
			return rules.FromStore(err)
		}
		if !inserted {
			existing, err = s.repo.FindByIdempotencyKey(ctx, tx, *idempotencyKey)
			return err
		}
		return s.aggregates.OnUsageLogged(ctx, tx, *record)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.emitLiveUsageEvent(existing, liveevents.StatusDeduplicated)
		return existing, nil
	}

	s.metrics.RecordMutation(ctx, table, "insert")
	s.emitLiveUsageEvent(record, liveevents.StatusAccepted)
	return record, nil
}

func (s *Service) List(ctx context.Context, req usagedomain.ListUsageRequest) (usagedomain.ListUsageResponse, error) {
	filter, pageSize, err := buildUsageFilter(req)
	if err != nil {
		return usagedomain.ListUsageResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return usagedomain.ListUsageResponse{}, err
	}
	return buildUsageListResponse(items, pageSize), nil
}

func (s *Service) emitLiveUsageEvent(record *usagedomain.UsageLog, status string) {
	if s.liveEvents == nil || record == nil || record.IdentityID == nil {
		return
	}
	event := liveevents.LiveEvent{
		UsageLogID: record.ID.String(),
		IdentityID: record.IdentityID.String(),
		Action:     string(record.Action),
		Matched:    record.Matched,
		RecordedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
		Status:     status,
	}
	if record.ActorPackID != nil {
		event.ActorPackID = record.ActorPackID.String()
	}
	s.liveEvents.Publish(event)
}

func validateUsage(req usagedomain.RecordUsageRequest) error {
	if err := usagedomain.Actions.Validate(req.Action); err != nil {
		return err
	}
	switch req.Action {
	case usagedomain.ActionVerify:
		if req.IdentityID == nil || *req.IdentityID == uuid.Nil {
			return usagedomain.ErrInvalidIdentity
		}
	case usagedomain.ActionDownload:
		if req.ActorPackID == nil || *req.ActorPackID == uuid.Nil {
			return usagedomain.ErrInvalidActorPack
		}
	}
	if score := req.SimilarityScore; score != nil {
		if math.IsNaN(*score) || math.IsInf(*score, 0) || *score < 0 || *score > 1 {
			return usagedomain.ErrInvalidSimilarityScore
		}
	}
	return nil
}

func normalizeIdempotencyKey(key *string) *string {
	if key == nil {
		return nil
	}
	value := strings.TrimSpace(*key)
	if value == "" {
		return nil
	}
	return &value
}

func buildUsageFilter(req usagedomain.ListUsageRequest) (usagedomain.ListFilter, int, error) {
	var filter usagedomain.ListFilter

	if raw := strings.TrimSpace(req.IdentityID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, 0, usagedomain.ErrInvalidIdentity
		}
		filter.IdentityID = &id
	}
	if raw := strings.TrimSpace(req.ActorPackID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, 0, usagedomain.ErrInvalidActorPack
		}
		filter.ActorPackID = &id
	}
	if raw := strings.ToLower(strings.TrimSpace(req.Action)); raw != "" {
		if !usagedomain.Actions.Contains(usagedomain.Action(raw)) {
			return filter, 0, usagedomain.ErrInvalidAction
		}
		filter.Action = raw
	}

	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return filter, 0, usagedomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return filter, 0, usagedomain.ErrInvalidPageToken
		}
		id, err := uuid.Parse(strings.TrimSpace(decoded.ID))
		if err != nil {
			return filter, 0, usagedomain.ErrInvalidPageToken
		}
		filter.Cursor = &usagedomain.UsageCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}
	filter.Limit = pageSize

	return filter, pageSize, nil
}

func buildUsageListResponse(items []*usagedomain.UsageLog, pageSize int) usagedomain.ListUsageResponse {
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *usagedomain.UsageLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	records := make([]usagedomain.UsageLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	return usagedomain.ListUsageResponse{
		PageInfo:  *pageInfo,
		UsageLogs: records,
	}
}
