package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeStats struct {
	calls atomic.Int64
	count int64
}

func (f *fakeStats) HistoryCount(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return f.count, nil
}

func TestCollectorCollectsOnStart(t *testing.T) {
	stats := &fakeStats{count: 7}
	c := NewCollector(stats, time.Hour)

	c.Start()
	defer c.Stop()

	// The first collection happens synchronously inside the worker; give it
	// a moment to run.
	deadline := time.Now().Add(2 * time.Second)
	for stats.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if stats.calls.Load() == 0 {
		t.Fatal("collector never polled the stats provider")
	}
}

func TestCollectorStopTerminates(t *testing.T) {
	c := NewCollector(&fakeStats{}, time.Hour)
	c.Start()

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	c := NewCollector(&fakeStats{}, 0)
	if c.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", c.interval)
	}
}
