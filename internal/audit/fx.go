package audit

import (
	"github.com/actorhub/actorhub/internal/audit/repository"
	"github.com/actorhub/actorhub/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
