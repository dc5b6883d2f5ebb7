// Package stack wires every domain service over a throwaway sqlite database
// the same way the api binary does, for tests that cross service boundaries.
package stack

import (
	"context"
	"testing"
	"time"

	"github.com/actorhub/actorhub/internal/actorpack"
	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	"github.com/actorhub/actorhub/internal/aggregate"
	"github.com/actorhub/actorhub/internal/apikey"
	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/audit"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/cascade"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	"github.com/actorhub/actorhub/internal/identity"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	"github.com/actorhub/actorhub/internal/license"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	"github.com/actorhub/actorhub/internal/listing"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	"github.com/actorhub/actorhub/internal/notification"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/actorhub/actorhub/internal/payout"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/reconcile"
	"github.com/actorhub/actorhub/internal/subscription"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	"github.com/actorhub/actorhub/internal/testutil/dbtest"
	"github.com/actorhub/actorhub/internal/transaction"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/actorhub/actorhub/internal/usage"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/actorhub/actorhub/internal/usage/liveevents"
	"github.com/actorhub/actorhub/internal/user"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type Env struct {
	DB    *gorm.DB
	Clock *clock.FakeClock
	Rules *config.RulesHolder

	Users         userdomain.Service
	Identities    identitydomain.Service
	Listings      listingdomain.Service
	ActorPacks    actorpackdomain.Service
	Licenses      licensedomain.Service
	Payouts       payoutdomain.Service
	Subscriptions subscriptiondomain.Service
	Usage         usagedomain.Service
	Notifications notificationdomain.Service
	APIKeys       apikeydomain.Service
	Transactions  transactiondomain.Service
	Audit         auditdomain.Service
	Cascade       *cascade.Service
	Reconciler    *reconcile.Service
	LiveEvents    *liveevents.Hub
}

// Option adjusts the rules config before the graph is built.
type Option func(*config.RulesConfig)

func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	rulesCfg := config.DefaultRulesConfig()
	for _, opt := range opts {
		opt(&rulesCfg)
	}
	env := &Env{
		DB:    dbtest.Open(t),
		Clock: clock.NewFakeClock(Epoch),
		Rules: config.NewStaticRulesHolder(rulesCfg),
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(zap.NewNop(), env.DB, env.Rules),
		fx.Provide(func() clock.Clock { return env.Clock }),
		fx.Provide(func() (*snowflake.Node, error) { return snowflake.NewNode(1) }),
		audit.Module,
		notification.Module,
		transaction.Module,
		apikey.Module,
		user.Module,
		identity.Module,
		listing.Module,
		actorpack.Module,
		license.Module,
		payout.Module,
		subscription.Module,
		usage.Module,
		aggregate.Module,
		cascade.Module,
		reconcile.Module,
		fx.Populate(
			&env.Users,
			&env.Identities,
			&env.Listings,
			&env.ActorPacks,
			&env.Licenses,
			&env.Payouts,
			&env.Subscriptions,
			&env.Usage,
			&env.Notifications,
			&env.APIKeys,
			&env.Transactions,
			&env.Audit,
			&env.Cascade,
			&env.Reconciler,
			&env.LiveEvents,
		),
	)
	if err := app.Err(); err != nil {
		t.Fatalf("build service graph: %v", err)
	}
	return env
}

// Fixture is a live creator with one identity, its active listing and actor pack.
type Fixture struct {
	User      userdomain.User
	Identity  identitydomain.Identity
	Listing   listingdomain.Listing
	ActorPack actorpackdomain.ActorPack
}

// Seed creates a fixture through the services. commercial sets the identity's
// allow_commercial_use flag.
func (e *Env) Seed(t testing.TB, commercial bool) Fixture {
	t.Helper()
	ctx := context.Background()

	u, err := e.Users.Create(ctx, nil, userdomain.CreateUserRequest{
		Email: uuid.NewString()[:8] + "@example.com",
		Role:  userdomain.RoleCreator,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, err := e.Identities.Create(ctx, nil, identitydomain.CreateIdentityRequest{
		UserID:             u.ID,
		DisplayName:        "Ada Voice",
		AllowCommercialUse: commercial,
	})
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	l, err := e.Listings.Create(ctx, nil, listingdomain.CreateListingRequest{
		IdentityID: id.ID,
		Title:      "Ada Voice Pack",
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	p, err := e.ActorPacks.Create(ctx, nil, actorpackdomain.CreateActorPackRequest{
		IdentityID: id.ID,
		Name:       "ada-v1",
	})
	if err != nil {
		t.Fatalf("seed actor pack: %v", err)
	}
	return Fixture{User: u, Identity: id, Listing: l, ActorPack: p}
}

// Count runs SELECT COUNT(*) over table with an optional where clause.
func (e *Env) Count(t testing.TB, table, where string, args ...any) int64 {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int64
	if err := e.DB.Raw(q, args...).Scan(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
