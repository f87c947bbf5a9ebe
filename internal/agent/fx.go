package agent

import "go.uber.org/fx"

var Module = fx.Module("agent",
	fx.Provide(NewDispatcher),
	fx.Provide(NewOrchestrator),
)
