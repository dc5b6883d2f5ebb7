package apikey

import (
	"github.com/actorhub/actorhub/internal/apikey/repository"
	"github.com/actorhub/actorhub/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
