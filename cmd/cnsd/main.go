// Command cnsd is the consulns daemon: the backend protocol server that
// the DNS front-end talks to over a UNIX socket (spec §4.7, §6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lucat1/consulns/internal/backend"
	"github.com/lucat1/consulns/internal/cache"
	"github.com/lucat1/consulns/internal/kv"
	"github.com/lucat1/consulns/internal/metrics"
	"github.com/lucat1/consulns/internal/reload"
	"github.com/lucat1/consulns/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: cnsd <socket-path>")
	}
	socketPath := os.Args[1]

	consulDSN := os.Getenv("CONSUL_ADDR")
	if consulDSN == "" {
		consulDSN = "http://127.0.0.1:8500"
	}
	kvStore, err := kv.Dial(consulDSN)
	if err != nil {
		return fmt.Errorf("dialing consul at %s: %w", consulDSN, err)
	}
	logger.Info("connected to consul", "addr", consulDSN)

	st := store.New(kvStore)
	c, err := cache.Build(st)
	if err != nil {
		return fmt.Errorf("building initial cache: %w", err)
	}
	logger.Info("cache built", "zones", len(c.Zones()))

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if addr := os.Getenv("CONSULNS_METRICS_ADDR"); addr != "" {
		m = metrics.New(registry)
		exporter := metrics.NewExporter(addr, registry)
		go func() {
			if err := exporter.Run(ctx, logger); err != nil {
				logger.Error("metrics exporter failed", "error", err)
			}
		}()
	}

	h := backend.NewHandler(st, c, m)
	srv := backend.NewServer(socketPath, h, logger)

	if reloadAddr := os.Getenv("CONSULNS_RELOAD_ADDR"); reloadAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: reloadAddr})
		defer func() { _ = rdb.Close() }()
		sub := reload.NewSubscriber(rdb, logger)
		go func() {
			err := sub.Run(ctx, func(zone string) {
				if err := c.Reload(st); err != nil {
					logger.Error("cache reload failed", "zone", zone, "error", err)
					return
				}
				logger.Info("cache reloaded", "zone", zone)
			})
			if err != nil {
				logger.Error("reload subscriber stopped", "error", err)
			}
		}()
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				logger.Info("SIGHUP received, reloading cache")
				if err := c.Reload(st); err != nil {
					logger.Error("cache reload failed", "error", err)
				}
			}
		}
	}()

	return srv.Run(ctx)
}
