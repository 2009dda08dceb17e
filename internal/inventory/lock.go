package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ShowtimeLocker serializes all seat-state mutations for a given
// showtime.  Lock blocks until the critical section is acquired or the
// context is done, and returns an unlock function that must be called
// exactly once.
type ShowtimeLocker interface {
	Lock(ctx context.Context, showtimeID uint64) (unlock func() error, err error)
}

// RedisLocker implements ShowtimeLocker with a redsync distributed
// mutex keyed by showtime id, so the critical section holds across
// multiple service instances sharing one Redis.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
}

// NewRedisLocker wraps an existing go-redis client.  The expiry bounds
// how long a crashed holder can keep a showtime locked; the mutation
// under the lock is a short read-modify-write, so a few seconds is
// plenty.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: 8 * time.Second,
		tries:  64,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, showtimeID uint64) (func() error, error) {
	m := l.rs.NewMutex(
		fmt.Sprintf("lock:showtime:%d", showtimeID),
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
	)
	if err := m.LockContext(ctx); err != nil {
		return nil, err
	}
	return func() error {
		_, err := m.UnlockContext(ctx)
		return err
	}, nil
}

// LocalLocker implements ShowtimeLocker with one in-process mutex per
// showtime.  It is used when no Redis is configured (the service
// degrades rather than refusing to start) and in tests.  It only
// protects a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uint64]*sync.Mutex)}
}

func (l *LocalLocker) Lock(ctx context.Context, showtimeID uint64) (func() error, error) {
	l.mu.Lock()
	m, ok := l.locks[showtimeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[showtimeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() error {
		m.Unlock()
		return nil
	}, nil
}
