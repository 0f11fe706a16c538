// Package session provides the stores and locks behind dialogue sessions:
// an in-memory store with idle eviction, a Redis store for multi-replica
// deployments, and per-identity locking.
package session

import (
	"time"

	"github.com/soyeahso/cargoquote/internal/logging"
)

// DefaultIdleTimeout is how long an untouched session survives.
const DefaultIdleTimeout = 30 * time.Minute

const defaultPrefix = "cargoquote:session:"

type options struct {
	ttl    time.Duration
	prefix string
	now    func() time.Time
	log    *logging.Logger
}

// Option configures a store.
type Option func(*options)

// WithIdleTimeout sets the idle period after which a session is evicted.
// Zero disables eviction.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithClock sets the time source used for eviction.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.log = l.Sub("session") }
}

func buildOptions(opts []Option) options {
	o := options{
		ttl:    DefaultIdleTimeout,
		prefix: defaultPrefix,
		now:    time.Now,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
