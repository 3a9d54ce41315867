// Package netwatch tracks whether the remote store is reachable and
// notifies subscribers on transitions. The sync queue subscribes so a
// reconnect triggers exactly one replay pass.
package netwatch

import (
	"context"
	"sync"
	"time"
)

// Prober reports remote reachability; the remote store's Ping
// satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor holds the current online state. State changes come from
// explicit SetOnline calls (a CLI flag, a failed request observed by a
// caller) or from the optional background probe loop.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []func(online bool)

	prober   Prober
	interval time.Duration
}

// New creates a monitor that starts in the given state. interval
// enables background probing when positive and a prober is supplied.
func New(prober Prober, online bool, interval time.Duration) *Monitor {
	return &Monitor{
		online:   online,
		prober:   prober,
		interval: interval,
	}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback invoked on every state transition.
// Callbacks run synchronously and only when the state actually flips,
// never for a repeated SetOnline with the same value.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// SetOnline records the state and notifies subscribers on a change.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Run probes the remote at the configured interval until ctx is
// cancelled. A no-op when probing is disabled.
func (m *Monitor) Run(ctx context.Context) {
	if m.prober == nil || m.interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// Probe checks reachability once and updates the state.
func (m *Monitor) Probe(ctx context.Context) bool {
	m.probe(ctx)
	return m.Online()
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	m.SetOnline(m.prober.Ping(probeCtx) == nil)
}
