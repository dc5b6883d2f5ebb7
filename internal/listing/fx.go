package listing

import (
	"github.com/actorhub/actorhub/internal/listing/repository"
	"github.com/actorhub/actorhub/internal/listing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("listing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
