package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	draftKeyPrefix = "intake:draft:"
	lockKeyPrefix  = "intake:submit:"
)

// RedisStore keeps drafts in Redis with an optional expiry.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisStore wraps a redis client. A ttl of 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("drafts: redis client required")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("psychwebmd.internal.drafts.redis"),
		ttl:    ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Draft, error) {
	ctx, span := s.tracer.Start(ctx, "drafts.redis.load", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	data, err := s.redis.Get(ctx, draftKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("drafts: redis get: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, key string, d *Draft) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "drafts.redis.save", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	// A zero expiration means the key persists.
	if err := s.redis.Set(ctx, draftKeyPrefix+key, data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("drafts: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "drafts.redis.clear", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	if err := s.redis.Del(ctx, draftKeyPrefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("drafts: redis del: %w", err)
	}
	return nil
}

// RedisSubmitLock serializes submissions of one session across API replicas.
type RedisSubmitLock struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSubmitLock creates a lock whose holders expire after ttl if they
// never release.
func NewRedisSubmitLock(client *redis.Client, ttl time.Duration) *RedisSubmitLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSubmitLock{redis: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the submission lock for key. It returns ErrSubmitInProgress
// when another holder has it.
func (l *RedisSubmitLock) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, lockKeyPrefix+key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("drafts: acquire submit lock: %w", err)
	}
	if !ok {
		return nil, ErrSubmitInProgress
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.redis, []string{lockKeyPrefix + key}, token).Err()
	}, nil
}
