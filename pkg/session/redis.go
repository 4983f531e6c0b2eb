package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings of the Redis session backend.
type RedisConfig struct {
	Address  string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"SESSION_TTL"`
}

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	connectionTimeout = 5 * time.Second
	keyPrefix         = "readlater:session:"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps sessions in Redis so they survive restarts. A positive TTL
// expires abandoned dialogs; an expired dialog reads back as Idle.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(owner int64) string {
	return keyPrefix + strconv.FormatInt(owner, 10)
}

func (r *RedisStore) Get(ctx context.Context, owner int64) (State, error) {
	data, err := r.client.Get(ctx, sessionKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Idle{}, nil
		}
		return nil, fmt.Errorf("get session of %d: %w", owner, err)
	}
	return Decode(data)
}

func (r *RedisStore) Set(ctx context.Context, owner int64, state State) error {
	if _, idle := state.(Idle); idle || state == nil {
		return r.Clear(ctx, owner)
	}

	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode session of %d: %w", owner, err)
	}
	if err := r.client.Set(ctx, sessionKey(owner), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session of %d: %w", owner, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, owner int64) error {
	if err := r.client.Del(ctx, sessionKey(owner)).Err(); err != nil {
		return fmt.Errorf("clear session of %d: %w", owner, err)
	}
	return nil
}
