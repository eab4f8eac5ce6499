// Package lock provides short-lived mutual exclusion keyed by string.
// The Redis implementation spans instances; the local one serves a
// single process (STORAGE_DRIVER=memory, tests).
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the key is held by someone else.
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains locks. Obtain does not wait: a held key fails fast
// with ErrNotObtained.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// ===========================================
// Redis
// ===========================================

// RedisLocker is a Locker backed by redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker over rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lk, nil
}

// ===========================================
// Local
// ===========================================

// LocalLocker is an in-process Locker. Expired entries are reclaimed on
// the next Obtain for the same key.
type LocalLocker struct {
	mu    sync.Mutex
	seq   uint64
	held  map[string]localEntry
	nowFn func() time.Time
}

type localEntry struct {
	token   uint64
	expires time.Time
}

// NewLocalLocker creates an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), nowFn: time.Now}
}

func (l *LocalLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrNotObtained
	}
	l.seq++
	l.held[key] = localEntry{token: l.seq, expires: now.Add(ttl)}
	return &localLock{owner: l, key: key, token: l.seq}, nil
}

type localLock struct {
	owner *LocalLocker
	key   string
	token uint64
}

// Release frees the key unless it expired and was taken by someone else.
func (k *localLock) Release(context.Context) error {
	k.owner.mu.Lock()
	defer k.owner.mu.Unlock()

	if e, ok := k.owner.held[k.key]; ok && e.token == k.token {
		delete(k.owner.held, k.key)
	}
	return nil
}
