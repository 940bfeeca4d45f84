package purchaserequest

import (
	"github.com/smallbiznis/ppmp/internal/purchaserequest/repository"
	"github.com/smallbiznis/ppmp/internal/purchaserequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchaserequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
