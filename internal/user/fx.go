package user

import (
	"github.com/actorhub/actorhub/internal/user/repository"
	"github.com/actorhub/actorhub/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
