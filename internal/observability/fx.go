package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

func provideRegistry() (*prometheus.Registry, prometheus.Registerer) {
	reg := prometheus.NewRegistry()
	return reg, reg
}

var Module = fx.Module("observability",
	fx.Provide(provideRegistry),
	fx.Provide(NewMetrics),
)
