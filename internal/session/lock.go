package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/soyeahso/cargoquote/internal/logging"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates one holder per key across processes.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// DefaultLockTTL bounds how long a crashed holder can block a key.
const DefaultLockTTL = 30 * time.Second

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key and forgets keys nobody holds or waits
// on. With a DistributedLocker configured it also takes the cluster-wide
// lock after the local one.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	dist DistributedLocker
	ttl  time.Duration
	log  *logging.Logger
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithDistributed layers a cluster-wide lock held for at most ttl.
func WithDistributed(d DistributedLocker, ttl time.Duration) LockerOption {
	return func(l *Locker) {
		l.dist = d
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLockLogger sets the logger.
func WithLockLogger(log *logging.Logger) LockerOption {
	return func(l *Locker) { l.log = log.Sub("lock") }
}

// NewLocker returns a Locker.
func NewLocker(opts ...LockerOption) *Locker {
	l := &Locker{
		locks: make(map[string]*lockEntry),
		ttl:   DefaultLockTTL,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until key is free and returns the function that frees it.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)
	e.mu.Lock()
	local := func() {
		e.mu.Unlock()
		l.release(key)
	}

	if l.dist == nil {
		return local, nil
	}

	unlock, err := l.dist.Lock(ctx, key, l.ttl)
	if err != nil {
		local()
		return nil, fmt.Errorf("distributed lock %s: %w", key, err)
	}
	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("releasing distributed lock failed, it will expire")
		}
		local()
	}, nil
}

// Held returns the number of keys currently locked or awaited.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// ErrLockAcquire is returned when Redis refuses the lock.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker implements DistributedLocker with SET NX PX and a
// compare-and-delete release.
type RedisLocker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewRedisLocker returns a locker whose keys live under prefix.
func NewRedisLocker(client *backend.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, poll: 50 * time.Millisecond}
}

// Lock polls until the key is acquired or ctx ends.
func (r *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	lockKey := r.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, r.client, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ DistributedLocker = (*RedisLocker)(nil)
