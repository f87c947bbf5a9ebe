package conversation

import (
	"github.com/polisbot/polisbot/internal/conversation/repository"
	"github.com/polisbot/polisbot/internal/conversation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conversation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
