// Package config loads the settings of the kifu binaries from defaults, an optional
// config file, KIFU_ environment variables and command line flags, in increasing priority.
package config

import (
	"strings"
	"time"

	"github.com/gorgonia/kifu/cache"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "KIFU"

type Config struct {
	Addr     string        `mapstructure:"addr"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
	Dev      bool          `mapstructure:"dev"`

	Render  Render `mapstructure:"render"`
	Cache   Cache  `mapstructure:"cache"`
	Workers int    `mapstructure:"workers"`
}

type Render struct {
	CellSize int  `mapstructure:"cell_size"`
	Padding  int  `mapstructure:"padding"`
	Labels   bool `mapstructure:"labels"`
}

// Cache selects the render cache: "none", "memory" or "redis".
type Cache struct {
	Kind  string            `mapstructure:"kind"`
	Size  int               `mapstructure:"size"` // entries held by the memory cache
	Redis cache.RedisConfig `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("dev", false)
	v.SetDefault("workers", 0)

	v.SetDefault("render.cell_size", 40)
	v.SetDefault("render.padding", 40)
	v.SetDefault("render.labels", false)

	v.SetDefault("cache.kind", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "kifu:")
	v.SetDefault("cache.redis.ttl", time.Hour)
}

// Flags registers the flags that override the configuration.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file")
	fs.String("addr", ":8080", "address to listen on")
	fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.Bool("dev", false, "development logging")
	fs.Int("cell-size", 40, "distance between grid lines in pixels")
	fs.Int("padding", 40, "margin around the grid in pixels")
	fs.Bool("labels", false, "draw coordinate labels")
	fs.String("cache", "memory", "render cache: none, memory or redis")
	fs.String("redis-addr", "localhost:6379", "redis address")
	fs.Int("workers", 0, "concurrent renders in a batch, 0 for one per CPU")
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":       "addr",
	"timeout":    "timeout",
	"log-level":  "log_level",
	"dev":        "dev",
	"cell-size":  "render.cell_size",
	"padding":    "render.padding",
	"labels":     "render.labels",
	"cache":      "cache.kind",
	"redis-addr": "cache.redis.addr",
	"workers":    "workers",
}

// Load reads the configuration. fs may be nil; only flags that were set on the command line take effect.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "unable to bind flag %q", name)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, "unable to read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be fixed up later.
func (c *Config) Validate() error {
	switch {
	case c.Render.CellSize < 1:
		return errors.Errorf("cell size must be positive, got %d", c.Render.CellSize)
	case c.Render.Padding < 0:
		return errors.Errorf("padding must not be negative, got %d", c.Render.Padding)
	case c.Timeout <= 0:
		return errors.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	switch c.Cache.Kind {
	case "none", "memory", "redis":
	default:
		return errors.Errorf("unknown cache %q", c.Cache.Kind)
	}
	return nil
}
