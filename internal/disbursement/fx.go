package disbursement

import (
	"github.com/smallbiznis/ppmp/internal/disbursement/repository"
	"github.com/smallbiznis/ppmp/internal/disbursement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("disbursement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
