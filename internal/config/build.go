package config

import (
	"context"

	"github.com/gorgonia/kifu/cache"
	"github.com/gorgonia/kifu/render"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RenderOptions returns the configured render options with the default palette.
func (c *Config) RenderOptions() render.Options {
	o := render.DefaultOptions()
	o.CellSize = c.Render.CellSize
	o.Padding = c.Render.Padding
	o.Labels = c.Render.Labels
	return o
}

// NewLogger builds the logger of the binaries: JSON at the configured level, or the
// development console logger when Dev is set.
func (c *Config) NewLogger() (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	zc := zap.NewProductionConfig()
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// OpenCache builds the configured cache. A nil cache means caching is off.
// The returned function releases the cache's resources.
func (c *Config) OpenCache(ctx context.Context, log *zap.Logger) (cache.Cache, func() error, error) {
	nop := func() error { return nil }
	switch c.Cache.Kind {
	case "none":
		return nil, nop, nil
	case "memory":
		return cache.NewMemory(c.Cache.Size), nop, nil
	case "redis":
		r := cache.NewRedis(c.Cache.Redis, log)
		if err := r.Init(ctx); err != nil {
			return nil, nop, err
		}
		return r, r.Close, nil
	}
	return nil, nop, errors.Errorf("unknown cache %q", c.Cache.Kind)
}
