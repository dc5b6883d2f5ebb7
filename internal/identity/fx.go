package identity

import (
	"github.com/actorhub/actorhub/internal/identity/repository"
	"github.com/actorhub/actorhub/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
