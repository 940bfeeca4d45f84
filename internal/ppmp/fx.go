package ppmp

import (
	"github.com/smallbiznis/ppmp/internal/ppmp/aggregate"
	"github.com/smallbiznis/ppmp/internal/ppmp/repository"
	"github.com/smallbiznis/ppmp/internal/ppmp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ppmp.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(aggregate.New),
	fx.Provide(service.NewService),
)
