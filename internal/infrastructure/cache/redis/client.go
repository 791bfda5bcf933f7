// Package redis caches derived dashboard views in Redis so repeated requests
// for the same conference/year do not re-run the aggregation pipeline.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "failed to connect to redis").WithDetail(cfg.Addr)
	}

	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return client, nil
}
