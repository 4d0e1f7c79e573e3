package common

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/types"
)

// RedisClient wraps a single-node or cluster go-redis client
type RedisClient struct {
	redis.UniversalClient
}

type RedisClientOption func(*redis.UniversalOptions)

func WithClientName(name string) RedisClientOption {
	return func(o *redis.UniversalOptions) {
		o.ClientName = name
	}
}

func NewRedisClient(cfg types.RedisConfig, options ...RedisClientOption) (*RedisClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: no addresses configured")
	}

	opts := &redis.UniversalOptions{
		Addrs:           cfg.Addrs,
		Username:        cfg.Username,
		Password:        cfg.Password,
		ClientName:      cfg.ClientName,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		MaxRedirects:    cfg.MaxRedirects,
		MaxRetries:      cfg.MaxRetries,
		RouteByLatency:  cfg.RouteByLatency,
	}
	for _, opt := range options {
		opt(opts)
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}
	}

	var client redis.UniversalClient
	if cfg.Mode == types.RedisModeCluster {
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Strs("addrs", cfg.Addrs).Str("mode", string(cfg.Mode)).Msg("connected to redis")

	return &RedisClient{UniversalClient: client}, nil
}
