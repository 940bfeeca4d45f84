package reference

import "go.uber.org/fx"

// Module exposes the department and product catalog lookups.
var Module = fx.Module("reference.catalog",
	fx.Provide(NewRepository),
)
