package summary

import (
	"github.com/milkround/milkround/internal/summary/repository"
	"github.com/milkround/milkround/internal/summary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summary.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
