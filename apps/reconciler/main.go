package main

import (
	"github.com/actorhub/actorhub/internal/audit"
	"github.com/actorhub/actorhub/internal/clock"
	"github.com/actorhub/actorhub/internal/config"
	"github.com/actorhub/actorhub/internal/idgen"
	"github.com/actorhub/actorhub/internal/observability"
	"github.com/actorhub/actorhub/internal/reconcile"
	"github.com/actorhub/actorhub/internal/scheduler"
	"github.com/actorhub/actorhub/pkg/db"
	"go.uber.org/fx"
)

// RECONCILE_RUN_ONCE=true runs one pass and exits with its status.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		idgen.Module,
		db.Module,
		clock.Module,

		audit.Module,
		reconcile.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}
