package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-api/internal/admission"
	"portfolio-api/internal/security"
	"portfolio-api/internal/store"
)

// openStore uses Postgres when DATABASE_URL is set and the JSON file store
// under DATA_DIR otherwise.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using file store", "data_dir", cfg.DataDir)
		return store.NewFileStore(cfg.DataDir)
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres")
	return store.NewPgStore(pool), nil
}

// antiAbuse returns the request throttle and origin claims, shared through
// Redis when it is reachable and process-local otherwise.
func antiAbuse(ctx context.Context) (security.Limiter, admission.OriginClaimer, func()) {
	var limiter security.Limiter = security.NewFixedWindowLimiter()
	var claims admission.OriginClaimer = security.NewOriginClaims()
	closeFn := func() {}

	if cfg.RedisAddr == "" {
		return limiter, claims, closeFn
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	pingErr := redisClient.Ping(pingCtx).Err()
	cancel()
	if pingErr != nil {
		logger.Warn("redis unreachable, falling back to in-memory throttling", "error", pingErr)
		_ = redisClient.Close()
		return limiter, claims, closeFn
	}

	logger.Info("redis connected, sharing throttle and origin claims", "addr", cfg.RedisAddr)
	return security.NewRedisFixedWindowLimiter(redisClient, cfg.RedisKeyPrefix),
		security.NewRedisOriginClaims(redisClient, cfg.RedisKeyPrefix),
		func() { _ = redisClient.Close() }
}
