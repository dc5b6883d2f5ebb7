package payout

import (
	"github.com/actorhub/actorhub/internal/payout/repository"
	"github.com/actorhub/actorhub/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
