package usage

import (
	"github.com/actorhub/actorhub/internal/usage/liveevents"
	"github.com/actorhub/actorhub/internal/usage/repository"
	"github.com/actorhub/actorhub/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(repository.Provide),
	fx.Provide(liveevents.NewHub),
	fx.Provide(service.NewService),
)
