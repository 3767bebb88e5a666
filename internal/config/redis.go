package config

import (
	"os"
	"sync"
	"time"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// SubmitLockTTL bounds how long one submission may hold the per-token lock.
	SubmitLockTTL time.Duration
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = newRedisConfig()
	})
	return redisConfig
}

func newRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:          os.Getenv("REDIS_ADDR"),
		Password:      os.Getenv("REDIS_PASSWORD"),
		DB:            getEnvInt("REDIS_DB", 0),
		SubmitLockTTL: getEnvDuration("FEEDBACK_SUBMIT_LOCK_TTL", 30*time.Second),
	}
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}
