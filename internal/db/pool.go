// Package db opens connections to the entity store backends.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	maxRetries    = 5
	retryInterval = 2 * time.Second
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	var pool *pgxpool.Pool
	err = withRetries(ctx, "postgres", func() error {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return err
		}
		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			return pingErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msg("database connected")
	return pool, nil
}

// withRetries runs connect up to maxRetries times, sleeping between
// attempts unless ctx is done.
func withRetries(ctx context.Context, name string, connect func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = connect(); err == nil {
			return nil
		}

		log.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries).
			Msgf("%s connection attempt failed", name)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}
	return fmt.Errorf("%s connection failed after %d attempts: %w", name, maxRetries, err)
}
