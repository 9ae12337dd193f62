// Package health decides whether the answering backend is reachable. It
// fails open: any transport problem means degraded mode, never an error.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatadmision/admitchat/internal/logger"
)

// Pinger is the slice of the API client the monitor needs.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor performs on-demand reachability checks. No caching: every Check
// asks the backend again.
type Monitor struct {
	api Pinger
}

// NewMonitor creates a Monitor over the given API client.
func NewMonitor(api Pinger) *Monitor {
	return &Monitor{api: api}
}

// Check reports whether the backend answered the status endpoint.
func (m *Monitor) Check(ctx context.Context) bool {
	if err := m.api.Health(ctx); err != nil {
		logger.L.Warn("health check failed; degraded mode", "error", err)
		return false
	}
	return true
}

// Poller re-checks health on a fixed interval and reports each result to a
// callback. Stop cancels the loop; it is safe to call more than once.
type Poller struct {
	monitor  *Monitor
	interval time.Duration
	onResult func(healthy bool)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewPoller creates a Poller. onResult runs on the poller goroutine.
func NewPoller(m *Monitor, interval time.Duration, onResult func(healthy bool)) *Poller {
	return &Poller{
		monitor:  m,
		interval: interval,
		onResult: onResult,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Calling it again is a no-op.
func (p *Poller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), p.interval)
				healthy := p.monitor.Check(ctx)
				cancel()
				p.onResult(healthy)
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly,
// and before Start: with no loop running there is nothing to wait for.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started.Load() {
		<-p.done
	}
}
