package runguard

import (
	"context"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"github.com/redis/go-redis/v9"
)

// noRetries turns off go-redis command retries. A failed marker read or
// write is reported to the guard as is.
const noRetries = -1

type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore keeps the marker under key in redis. The connection is
// checked once so a wrong address fails at startup.
func NewRedisStore(ctx context.Context, addr, key string) (MarkerStore, error) {
	errFactory := errors.New()

	if addr == "" || key == "" {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "redis address and key are required")
	}

	client := redis.NewClient(redisOptions(addr))

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	return &redisStore{client: client, key: key}, nil
}

func redisOptions(addr string) *redis.Options {
	return &redis.Options{
		Addr:       addr,
		MaxRetries: noRetries,
	}
}

func (s *redisStore) Load(ctx context.Context) (Week, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return Week{}, false, nil
	}
	if err != nil {
		return Week{}, false, err
	}

	week, err := ParseWeek(val)
	if err != nil {
		return Week{}, false, err
	}

	return week, true, nil
}

func (s *redisStore) Save(ctx context.Context, week Week) error {
	return s.client.Set(ctx, s.key, week.String(), 0).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
