// Command kifud serves board renders over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorgonia/kifu"
	"github.com/gorgonia/kifu/internal/config"
	"github.com/gorgonia/kifu/internal/server"
	"github.com/spf13/pflag"
)

const shutdownGrace = 5 * time.Second

func main() {
	fs := pflag.NewFlagSet("kifud", pflag.ExitOnError)
	config.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, closeCache, err := cfg.OpenCache(ctx, logger)
	if err != nil {
		log.Fatalw("failed to open cache", "kind", cfg.Cache.Kind, "error", err)
	}
	defer closeCache()

	h := server.New(kifu.Config{
		Render: cfg.RenderOptions(),
		Logger: logger,
		Cache:  c,
	}, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(cfg.Timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("received shutdown signal")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warnw("shutdown", "error", err)
		}
	}()

	log.Infow("server is running", "addr", cfg.Addr, "cache", cfg.Cache.Kind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("failed to start server", "error", err)
	}
}
