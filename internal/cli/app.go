package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/config"
	"github.com/casebook-dev/casebook/internal/netwatch"
	"github.com/casebook-dev/casebook/internal/remote"
	"github.com/casebook-dev/casebook/internal/syncer"
)

// app bundles the wired components every command needs: config, the
// local cache, the remote store, the connectivity monitor, and the sync
// manager on top of them.
type app struct {
	cfg     *config.Config
	cache   *cache.Store
	remote  remote.Store
	monitor *netwatch.Monitor
	sync    *syncer.Manager
}

// openApp loads config, opens the cache database, builds the configured
// remote backend, and probes connectivity once so commands know whether
// they can reach the remote. The probe runs before the sync manager
// subscribes to the monitor, so opening the app never triggers a replay
// on its own.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	paths := config.GetPaths(cfg)
	store, err := cache.New(cache.DefaultConfig(paths.Database))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	rs, err := remote.FromConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	interval := time.Duration(cfg.ProbeIntervalSec) * time.Second
	mon := netwatch.New(rs, false, interval)
	mon.Probe(ctx)

	mgr := syncer.New(store, rs,
		syncer.WithMonitor(mon),
		syncer.WithConflictStore(syncer.NewMemoryConflicts()),
	)

	return &app{cfg: cfg, cache: store, remote: rs, monitor: mon, sync: mgr}, nil
}

func (a *app) Close() {
	_ = a.cache.Close()
}
