package authorization

import (
	"context"
	_ "embed"
	"strings"

	obscontext "github.com/actorhub/actorhub/internal/observability/context"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectUser         = "user"
	ObjectIdentity     = "identity"
	ObjectListing      = "listing"
	ObjectActorPack    = "actor_pack"
	ObjectLicense      = "license"
	ObjectTransaction  = "transaction"
	ObjectPayout       = "payout"
	ObjectSubscription = "subscription"
	ObjectUsage        = "usage"
	ObjectAPIKey       = "api_key"
	ObjectNotification = "notification"
	ObjectAuditLog     = "audit_log"
	ObjectReconcile    = "reconcile"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionPurge  = "purge"
	ActionIngest = "ingest"
	ActionRun    = "run"
	// ActionManage covers back-office workflow steps; only wildcard grants reach it.
	ActionManage = "manage"
	ActionAny    = "*"
)

const (
	RoleUser    = "role:user"
	RoleCreator = "role:creator"
	RoleAdmin   = "role:admin"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and seeds the role
// matrix. Seeding is idempotent.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

// RoleSubject maps a user role column value to its casbin subject.
func RoleSubject(role string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(role))
}

func (s *ServiceImpl) Authorize(ctx context.Context, role, object, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(RoleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		_, actorID := obscontext.ActorFromContext(ctx)
		s.log.Info("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
			zap.String("actor_id", actorID),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Buyers and API integrations
		{RoleUser, ObjectIdentity, ActionView},
		{RoleUser, ObjectListing, ActionView},
		{RoleUser, ObjectActorPack, ActionView},
		{RoleUser, ObjectLicense, ActionView},
		{RoleUser, ObjectLicense, ActionCreate},
		{RoleUser, ObjectUsage, ActionIngest},
		{RoleUser, ObjectUsage, ActionView},
		{RoleUser, ObjectAPIKey, ActionAny},
		{RoleUser, ObjectNotification, ActionView},
		{RoleUser, ObjectNotification, ActionUpdate},
		{RoleUser, ObjectSubscription, ActionView},
		{RoleUser, ObjectSubscription, ActionCreate},
		{RoleUser, ObjectSubscription, ActionUpdate},
		{RoleUser, ObjectUser, ActionView},
		{RoleUser, ObjectUser, ActionUpdate},
		{RoleUser, ObjectUser, ActionDelete},
		{RoleUser, ObjectTransaction, ActionView},

		// Creators own identities and what hangs off them
		{RoleCreator, ObjectIdentity, ActionCreate},
		{RoleCreator, ObjectIdentity, ActionUpdate},
		{RoleCreator, ObjectIdentity, ActionDelete},
		{RoleCreator, ObjectListing, ActionCreate},
		{RoleCreator, ObjectListing, ActionUpdate},
		{RoleCreator, ObjectActorPack, ActionCreate},
		{RoleCreator, ObjectActorPack, ActionUpdate},
		{RoleCreator, ObjectLicense, ActionUpdate},
		{RoleCreator, ObjectPayout, ActionView},
		{RoleCreator, ObjectPayout, ActionCreate},

		// Operators
		{RoleAdmin, ObjectUser, ActionAny},
		{RoleAdmin, ObjectIdentity, ActionAny},
		{RoleAdmin, ObjectActorPack, ActionAny},
		{RoleAdmin, ObjectLicense, ActionAny},
		{RoleAdmin, ObjectTransaction, ActionAny},
		{RoleAdmin, ObjectPayout, ActionAny},
		{RoleAdmin, ObjectSubscription, ActionAny},
		{RoleAdmin, ObjectAuditLog, ActionView},
		{RoleAdmin, ObjectReconcile, ActionAny},
		{RoleAdmin, ObjectNotification, ActionAny},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{RoleCreator, RoleUser},
		{RoleAdmin, RoleCreator},
	}
	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping); err != nil {
			return err
		}
	}
	return nil
}
