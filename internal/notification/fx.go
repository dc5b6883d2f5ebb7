package notification

import (
	"github.com/actorhub/actorhub/internal/notification/repository"
	"github.com/actorhub/actorhub/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
