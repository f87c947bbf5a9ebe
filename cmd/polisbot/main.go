package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/agent"
	"github.com/polisbot/polisbot/internal/config"
	"github.com/polisbot/polisbot/internal/conversation"
	"github.com/polisbot/polisbot/internal/fulfillment"
	"github.com/polisbot/polisbot/internal/llm"
	"github.com/polisbot/polisbot/internal/logger"
	"github.com/polisbot/polisbot/internal/migration"
	"github.com/polisbot/polisbot/internal/observability"
	"github.com/polisbot/polisbot/internal/payment"
	"github.com/polisbot/polisbot/internal/product"
	"github.com/polisbot/polisbot/internal/providers"
	"github.com/polisbot/polisbot/internal/quote"
	"github.com/polisbot/polisbot/internal/seed"
	"github.com/polisbot/polisbot/internal/server"
	"github.com/polisbot/polisbot/internal/user"
	"github.com/polisbot/polisbot/internal/userlock"
	"github.com/polisbot/polisbot/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,

		fx.Invoke(migration.RunMigrations),
		fx.Invoke(func(gdb *gorm.DB) error {
			return seed.EnsureMotorProduct(gdb)
		}),

		userlock.Module,
		providers.Module,
		llm.Module,

		user.Module,
		conversation.Module,
		product.Module,
		quote.Module,
		fulfillment.Module,
		payment.Module,
		agent.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
