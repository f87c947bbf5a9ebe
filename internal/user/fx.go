package user

import (
	"github.com/polisbot/polisbot/internal/user/repository"
	"github.com/polisbot/polisbot/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
