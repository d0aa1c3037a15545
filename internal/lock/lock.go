package redlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Locker is the matcher's single-writer lock. One key guards the whole
// pre-mapping pass; the token ties release to the pass that acquired the
// lock, so a pass that outlived its TTL cannot free a successor's lock.
type Locker struct {
	client redis.UniversalClient
	key    string
	token  string
}

func NewLocker(client redis.UniversalClient, key, token string) *Locker {
	return &Locker{client: client, key: key, token: token}
}

// Acquire takes the lock when it is free and reports whether this locker
// now holds it. A contended lock is not an error; the caller decides
// whether to skip or reschedule the pass.
func (l *Locker) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, ttl).Result()
}

// Release frees the lock if this locker still holds it.
func (l *Locker) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("lock %s expired or is held by another writer", l.key)
	}
	return nil
}
