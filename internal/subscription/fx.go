package subscription

import (
	"github.com/actorhub/actorhub/internal/subscription/repository"
	"github.com/actorhub/actorhub/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
