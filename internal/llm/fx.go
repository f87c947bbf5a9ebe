package llm

import (
	"context"

	"github.com/polisbot/polisbot/internal/agent/domain"
	"github.com/polisbot/polisbot/internal/config"
	"go.uber.org/fx"
)

func NewFromConfig(cfg config.Config) (domain.DialogueClient, error) {
	return NewGeminiClient(context.Background(), cfg)
}

var Module = fx.Module("llm",
	fx.Provide(NewFromConfig),
)
