package payment

import (
	"github.com/polisbot/polisbot/internal/payment/adapters/mercadopago"
	"github.com/polisbot/polisbot/internal/payment/domain"
	"github.com/polisbot/polisbot/internal/payment/repository"
	"github.com/polisbot/polisbot/internal/payment/service"
	"go.uber.org/fx"
)

func provideGateway(g *mercadopago.Gateway) domain.Gateway { return g }

var Module = fx.Module("payment.service",
	fx.Provide(mercadopago.New),
	fx.Provide(provideGateway),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
