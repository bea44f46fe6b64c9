package sessionsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

const keyPrefix = "session:revoked:"

// RedisStore keeps revoked session ids in Redis with the remaining token lifetime as TTL.
type RedisStore struct {
	rdb *redis.Client
}

var _ core.SessionStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// OpenRedisStore connects to conf.Redis and checks the server answers.
func OpenRedisStore(ctx context.Context, conf *core.Config) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedisStore(rdb), nil
}

func (s *RedisStore) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return errors.Wrap(s.rdb.Set(ctx, keyPrefix+id, 1, ttl).Err(), "revoking session")
}

func (s *RedisStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking session")
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
