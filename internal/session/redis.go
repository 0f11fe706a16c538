package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/soyeahso/cargoquote/internal/dialogue"
)

// RedisStore keeps each session as a JSON value whose key expires after the
// idle timeout. A sorted set indexes live identities for Len.
type RedisStore struct {
	client *backend.Client
	opts   options
}

// NewRedisStore connects to a Redis server.
func NewRedisStore(addr, password string, db int, opts ...Option) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, opts: buildOptions(opts)}
}

func (r *RedisStore) key(identity string) string { return r.opts.prefix + identity }

func (r *RedisStore) indexKey() string { return r.opts.prefix + "index" }

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get loads the identity's session.
func (r *RedisStore) Get(ctx context.Context, identity string) (*dialogue.Session, bool, error) {
	data, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var s dialogue.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decoding session %s: %w", identity, err)
	}
	if s.Answers == nil {
		s.Answers = make(map[dialogue.Field]string)
	}
	return &s, true, nil
}

// Save writes the session and refreshes its expiry.
func (r *RedisStore) Save(ctx context.Context, s *dialogue.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", s.Identity, err)
	}

	score := float64(r.opts.now().Add(r.opts.ttl).Unix())
	if r.opts.ttl <= 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.Identity), data, r.opts.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{Score: score, Member: s.Identity})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Clear deletes the session.
func (r *RedisStore) Clear(ctx context.Context, identity string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(identity))
	pipe.ZRem(ctx, r.indexKey(), identity)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Len prunes expired index entries and counts the rest.
func (r *RedisStore) Len(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", r.opts.now().Unix())
	if err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", now).Err(); err != nil {
		return 0, fmt.Errorf("redis prune: %w", err)
	}
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count: %w", err)
	}
	return int(n), nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Client exposes the underlying client so a RedisLocker can share it.
func (r *RedisStore) Client() *backend.Client { return r.client }

var (
	_ dialogue.Store = (*RedisStore)(nil)
	_ dialogue.Store = (*MemoryStore)(nil)
)
