package customer

import (
	"github.com/milkround/milkround/internal/customer/repository"
	"github.com/milkround/milkround/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
