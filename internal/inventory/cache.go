package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeatCache keeps a short-lived Redis projection of each showtime's
// taken-seat snapshot so the seat endpoints can answer without hitting
// the database.  Every inventory mutation must invalidate the entry.
// When no Redis client is configured all operations degrade to no-ops
// and callers fall back to the database.
type SeatCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewSeatCache builds a SeatCache.  A nil client disables caching.
func NewSeatCache(client *redis.Client, ttl time.Duration) *SeatCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SeatCache{client: client, ttl: ttl, prefix: "seats:taken"}
}

func (c *SeatCache) key(showtimeID uint64) string {
	return fmt.Sprintf("%s:%d", c.prefix, showtimeID)
}

// Get returns the cached taken-seat snapshot and whether it was found.
func (c *SeatCache) Get(ctx context.Context, showtimeID uint64) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(showtimeID)).Bytes()
	if err != nil {
		return nil, false
	}
	var seats []string
	if err := json.Unmarshal(raw, &seats); err != nil {
		return nil, false
	}
	return seats, true
}

// Set stores a taken-seat snapshot with the configured TTL.  Failures
// are ignored; the cache is an optimization, not a source of truth.
func (c *SeatCache) Set(ctx context.Context, showtimeID uint64, seats []string) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(seats)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(showtimeID), raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a showtime.
func (c *SeatCache) Invalidate(ctx context.Context, showtimeID uint64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(showtimeID)).Err()
}
