package auth

import (
	"github.com/milkround/milkround/internal/auth/repository"
	"github.com/milkround/milkround/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideSessions),
	fx.Provide(service.New),
)
