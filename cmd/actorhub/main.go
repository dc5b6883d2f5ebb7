package main

import (
	"github.com/actorhub/actorhub/internal/actorpack"
	"github.com/actorhub/actorhub/internal/aggregate"
	"github.com/actorhub/actorhub/internal/apikey"
	"github.com/actorhub/actorhub/internal/audit"
	"github.com/actorhub/actorhub/internal/authorization"
	"github.com/actorhub/actorhub/internal/cascade"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	"github.com/actorhub/actorhub/internal/identity"
	"github.com/actorhub/actorhub/internal/idgen"
	"github.com/actorhub/actorhub/internal/license"
	"github.com/actorhub/actorhub/internal/listing"
	"github.com/actorhub/actorhub/internal/migration"
	"github.com/actorhub/actorhub/internal/notification"
	"github.com/actorhub/actorhub/internal/observability"
	"github.com/actorhub/actorhub/internal/payout"
	"github.com/actorhub/actorhub/internal/ratelimit"
	"github.com/actorhub/actorhub/internal/reconcile"
	"github.com/actorhub/actorhub/internal/scheduler"
	"github.com/actorhub/actorhub/internal/seed"
	"github.com/actorhub/actorhub/internal/server"
	"github.com/actorhub/actorhub/internal/subscription"
	"github.com/actorhub/actorhub/internal/transaction"
	"github.com/actorhub/actorhub/internal/usage"
	"github.com/actorhub/actorhub/internal/user"
	"github.com/actorhub/actorhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		idgen.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
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

		authorization.Module,
		ratelimit.Module,
		seed.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}
