package checkpoint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open returns a Store for backend ("memory", "redis" or "sqlite").
// For redis, dsn is either a redis:// URL or a host:port address; ttl
// applies to redis only.
func Open(ctx context.Context, backend, dsn string, ttl time.Duration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		client, err := newRedisClient(dsn)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(client, ttl), nil
	case "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend: %q (available: memory, redis, sqlite)", backend)
	}
}

func newRedisClient(dsn string) (*redis.Client, error) {
	if dsn == "" {
		dsn = "localhost:6379"
	}
	if strings.Contains(dsn, "://") {
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: dsn}), nil
}
