package license

import (
	"github.com/actorhub/actorhub/internal/license/repository"
	"github.com/actorhub/actorhub/internal/license/service"
	"go.uber.org/fx"
)

var Module = fx.Module("license.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
