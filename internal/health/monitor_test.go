package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubPinger) Health(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubPinger) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCheck_FailsOpen(t *testing.T) {
	p := &stubPinger{}
	m := NewMonitor(p)
	require.True(t, m.Check(context.Background()))

	p.err = errors.New("connection refused")
	require.False(t, m.Check(context.Background()), "any failure means unreachable, never an error")
}

func TestCheck_NoCaching(t *testing.T) {
	p := &stubPinger{}
	m := NewMonitor(p)
	m.Check(context.Background())
	m.Check(context.Background())
	require.Equal(t, 2, p.callCount(), "every invocation re-checks")
}

func TestPoller_StopBeforeStartReturns(t *testing.T) {
	poller := NewPoller(NewMonitor(&stubPinger{}), time.Minute, func(bool) {})
	returned := make(chan struct{})
	go func() {
		poller.Stop()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Stop hung without a running loop")
	}
}

func TestPoller_ReportsAndStops(t *testing.T) {
	p := &stubPinger{}
	results := make(chan bool, 16)
	poller := NewPoller(NewMonitor(p), 5*time.Millisecond, func(healthy bool) {
		results <- healthy
	})

	poller.Start()
	select {
	case healthy := <-results:
		require.True(t, healthy)
	case <-time.After(time.Second):
		t.Fatal("poller never reported")
	}

	poller.Stop()
	poller.Stop() // safe to call twice

	// No further results once stopped.
	calls := p.callCount()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, calls, p.callCount())
}
