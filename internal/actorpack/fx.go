package actorpack

import (
	"github.com/actorhub/actorhub/internal/actorpack/repository"
	"github.com/actorhub/actorhub/internal/actorpack/service"
	"go.uber.org/fx"
)

var Module = fx.Module("actorpack.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
