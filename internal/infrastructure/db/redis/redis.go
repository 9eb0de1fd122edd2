// Package redis keeps the denylist of revoked bearer tokens. It is only
// wired when REDIS_ADDR is set; without it logout is disabled.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config is built from REDIS_ADDR and REDIS_DB.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect returns a client for the denylist after a successful ping. Timeout
// also bounds every later command, so token checks fail fast with a 500 when
// Redis is slow rather than hanging the request.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect denylist at %s: %w", cfg.Addr, err)
	}

	return client, nil
}
