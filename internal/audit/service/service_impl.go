package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/audit/masking"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/actorhub/actorhub/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rules   *config.RulesHolder
	Repo    auditdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	rules   *config.RulesHolder
	repo    auditdomain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		rules:   p.Rules,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) RecordInsert(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, after any) error {
	return s.record(ctx, tx, actorID, auditdomain.ActionInsert, resourceType, resourceID, nil, after)
}

// RecordUpdate skips the write when the snapshots differ only in excluded fields.
func (s *Service) RecordUpdate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, before, after any) error {
	return s.record(ctx, tx, actorID, auditdomain.ActionUpdate, resourceType, resourceID, before, after)
}

func (s *Service) RecordDelete(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, resourceType string, resourceID uuid.UUID, before any) error {
	return s.record(ctx, tx, actorID, auditdomain.ActionDelete, resourceType, resourceID, before, nil)
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action auditdomain.Action, resourceType string, resourceID uuid.UUID, before, after any) error {
	resourceType = strings.TrimSpace(resourceType)
	if _, tracked := auditdomain.TrackedTables[resourceType]; !tracked {
		return nil
	}
	if resourceID == uuid.Nil {
		return auditdomain.ErrInvalidResource
	}

	oldValues, err := snapshot(before)
	if err != nil {
		return err
	}
	newValues, err := snapshot(after)
	if err != nil {
		return err
	}
	if action == auditdomain.ActionUpdate && reflect.DeepEqual(oldValues, newValues) {
		return nil
	}

	masked := s.rules.Get().Audit.MaskedFields
	entry := auditdomain.AuditLog{
		ID:           s.genID.Generate(),
		ActorID:      normalizeActor(actorID),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if entry.OldValues, err = encode(masking.MaskFields(oldValues, masked)); err != nil {
		return err
	}
	if entry.NewValues, err = encode(masking.MaskFields(newValues, masked)); err != nil {
		return err
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", string(action)),
			zap.String("resource_type", resourceType),
			zap.Error(err),
		)
		return err
	}
	s.metrics.RecordAuditEntry(ctx, resourceType, string(action))
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	filter := auditdomain.ListFilter{
		ResourceType: req.ResourceType,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
	}
	if action := strings.ToUpper(strings.TrimSpace(req.Action)); action != "" {
		switch auditdomain.Action(action) {
		case auditdomain.ActionInsert, auditdomain.ActionUpdate, auditdomain.ActionDelete:
			filter.Action = action
		default:
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidAction
		}
	}
	if raw := strings.TrimSpace(req.ResourceID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidResource
		}
		filter.ResourceID = &id
	}
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidActor
		}
		filter.ActorID = &id
	}

	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		filter.Cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}
	filter.Limit = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item != nil {
			logs = append(logs, *item)
		}
	}
	return auditdomain.ListAuditLogResponse{PageInfo: *pageInfo, AuditLogs: logs}, nil
}

// snapshot flattens an entity into its json form without the excluded timestamp fields.
func snapshot(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	for _, field := range auditdomain.ExcludedFields {
		delete(out, field)
	}
	return out, nil
}

func encode(values map[string]any) (datatypes.JSON, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func normalizeActor(actorID *uuid.UUID) *uuid.UUID {
	if actorID == nil || *actorID == uuid.Nil {
		return nil
	}
	id := *actorID
	return &id
}
