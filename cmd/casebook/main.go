// Casebook - Offline-first case-study journaling
//
// A CLI for keeping project case studies and daily journal entries in a
// local cache, queueing changes while offline, and syncing them to a
// remote journal repository when connectivity returns.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/cli"
	"github.com/casebook-dev/casebook/internal/config"
	"github.com/casebook-dev/casebook/internal/log"
	"github.com/casebook-dev/casebook/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Load config and open the cache for the persistent tracking ID
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	paths := config.GetPaths(cfg)
	if err := log.Init(paths.Logs); err == nil {
		defer func() { _ = log.Close() }()
	}

	store, err := cache.New(cache.DefaultConfig(paths.Database))
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	telemetryClient := telemetry.New(store)
	defer telemetryClient.Close()

	if err := cli.Execute(ctx, telemetryClient); err != nil {
		os.Exit(1)
	}
}
