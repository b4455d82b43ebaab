package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// RedisConfig configures a Redis backed cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"` // 0 keeps entries forever
}

// Redis is a cache shared between processes.
type Redis struct {
	client *redis.Client
	conf   RedisConfig
	log    *zap.Logger
}

// NewRedis returns a cache that is not connected yet; call Init before use.
func NewRedis(conf RedisConfig, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{conf: conf, log: log}
}

// Init connects to the server and checks that it answers.
func (r *Redis) Init(ctx context.Context) error {
	r.client = redis.NewClient(&redis.Options{
		Addr:     r.conf.Addr,
		Password: r.conf.Password,
		DB:       r.conf.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(err, "unable to connect to redis at %v", r.conf.Addr)
	}
	r.log.Info("connected to redis", zap.String("addr", r.conf.Addr), zap.Int("db", r.conf.DB))
	return nil
}

func (r *Redis) key(k string) string { return r.conf.Prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, errors.New("redis cache is not initialised")
	}
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrap(err, "redis get")
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, b []byte) error {
	if r.client == nil {
		return errors.New("redis cache is not initialised")
	}
	if err := r.client.Set(ctx, r.key(key), b, r.conf.TTL).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
