package messaging

import (
	"github.com/polisbot/polisbot/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.WhatsApp.AccessToken == "" || cfg.WhatsApp.PhoneNumberID == "" {
		log.Warn("whatsapp credentials missing, outbound messaging disabled")
		return &NoOpProvider{}
	}
	return NewWhatsApp(cfg, log)
}

var Module = fx.Module("providers.messaging",
	fx.Provide(NewFromConfig),
)
