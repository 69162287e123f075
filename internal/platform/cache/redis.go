package cache

import (
	"context"

	"github.com/HarshSoni1801/NullByte/internal/platform/config"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		logger.L().Fatal("could not connect to Redis", zap.Error(err))
	}
	logger.L().Info("connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.L().Info("Redis connection closed")
	}
}
