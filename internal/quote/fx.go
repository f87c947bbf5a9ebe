package quote

import (
	"github.com/polisbot/polisbot/internal/quote/repository"
	"github.com/polisbot/polisbot/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
