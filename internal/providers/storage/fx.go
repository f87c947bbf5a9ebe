package storage

import "go.uber.org/fx"

func provide(l *LocalProvider) Provider { return l }

var Module = fx.Module("providers.storage",
	fx.Provide(NewLocal),
	fx.Provide(provide),
)
