package transaction

import (
	"github.com/actorhub/actorhub/internal/transaction/repository"
	"github.com/actorhub/actorhub/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
