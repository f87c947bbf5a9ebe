package product

import (
	"github.com/polisbot/polisbot/internal/product/repository"
	"github.com/polisbot/polisbot/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
