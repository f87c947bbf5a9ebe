package userlock

import (
	"github.com/polisbot/polisbot/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Locker {
	if cfg.RedisAddr == "" {
		log.Warn("redis not configured, using in-process user locks")
		return NewMutexLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return NewRedisLocker(client)
}

var Module = fx.Module("userlock",
	fx.Provide(NewFromConfig),
)
