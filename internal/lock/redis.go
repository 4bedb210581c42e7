package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/alfredjeanlab/flightpath/internal/idgen"
)

// ErrNotHeld is returned when releasing a lock that expired or was taken
// over by another holder.
var ErrNotHeld = errors.New("lock not held")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a Locker backed by SET NX PX on a shared Redis instance.
type Redis struct {
	pool *redis.Pool
	ttl  time.Duration
	poll time.Duration
}

// NewRedisPool creates a connection pool for the Redis server at url
// (redis://host:port/db).
func NewRedisPool(url string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		MaxActive:   20,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedis returns a Locker using pool. Locks expire after ttl so a crashed
// holder cannot block writers forever.
func NewRedis(pool *redis.Pool, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{pool: pool, ttl: ttl, poll: 50 * time.Millisecond}
}

// Lock polls until key is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func() error, error) {
	token, err := idgen.NewToken()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := r.tryLock(ctx, key, token)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.poll):
		}
	}

	return func() error {
		return r.release(key, token)
	}, nil
}

func (r *Redis) tryLock(ctx context.Context, key, token string) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	_, err = redis.String(conn.Do("SET", key, token, "NX", "PX", r.ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) release(key, token string) error {
	conn := r.pool.Get()
	defer conn.Close()

	n, err := redis.Int(releaseScript.Do(conn, key, token))
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
