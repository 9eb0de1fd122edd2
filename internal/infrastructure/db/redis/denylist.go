package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// Denylist records revoked token ids until the tokens would have expired.
// Key format: revoked:<jti>
type Denylist struct {
	client *redis.Client
}

// NewDenylist creates a Denylist wrapping the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Revoke marks tokenID as revoked for ttl. Keys expire on their own, so the
// list never outgrows the set of still-valid tokens.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := d.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether the server is reachable.
func (d *Denylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *Denylist) Close() error {
	return d.client.Close()
}
