package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedisClient ouvre un pool de connexions Redis et vérifie la connexion
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Adresse simple host:port
		opts = &redis.Options{Addr: url}
	}
	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	if err := HealthCheck(client); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info().Str("addr", opts.Addr).Msg("✓ Connecté à Redis")
	return client, nil
}

// HealthCheck vérifie que Redis répond
func HealthCheck(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis injoignable: %w", err)
	}
	return nil
}
