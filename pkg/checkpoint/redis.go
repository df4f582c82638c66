package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps checkpoints as JSON values in Redis.
type RedisStore struct {
	redis     *redis.Client
	ttl       time.Duration
	namespace string
}

// NewRedisStore creates a store on redisClient. Every Save refreshes the
// key's TTL; ttl <= 0 keeps checkpoints until deleted.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:     redisClient,
		ttl:       ttl,
		namespace: DefaultNamespace,
	}
}

func (s *RedisStore) key(jobID string) string {
	return Key{Namespace: s.namespace, JobID: jobID}.String()
}

// Load retrieves a checkpoint by job id.
// Returns ErrNotFound if the key doesn't exist or has expired.
func (s *RedisStore) Load(ctx context.Context, jobID string) (*Checkpoint, error) {
	Ops.WithLabelValues("load").Inc()

	data, err := s.redis.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		Errors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		Errors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidCheckpoint, err)
	}
	return &cp, nil
}

// Save stores cp and stamps UpdatedAt.
func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}
	Ops.WithLabelValues("save").Inc()

	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		Errors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key(cp.JobID), data, ttl).Err(); err != nil {
		Errors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a checkpoint.
func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	Ops.WithLabelValues("delete").Inc()

	if err := s.redis.Del(ctx, s.key(jobID)).Err(); err != nil {
		Errors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of a stored checkpoint; -1 means no
// expiry.
func (s *RedisStore) TTL(ctx context.Context, jobID string) (time.Duration, error) {
	ttl, err := s.redis.TTL(ctx, s.key(jobID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl == -2 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}
