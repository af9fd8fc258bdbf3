package delivery

import (
	"github.com/milkround/milkround/internal/delivery/repository"
	"github.com/milkround/milkround/internal/delivery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
