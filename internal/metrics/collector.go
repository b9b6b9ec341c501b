package metrics

import (
	"context"
	"time"

	"alltube/internal/logging"
)

// StatsProvider supplies values for gauges that have to be polled rather
// than incremented, such as the history row count.
type StatsProvider interface {
	HistoryCount(ctx context.Context) (int64, error)
}

// Collector periodically refreshes polled gauges from a StatsProvider.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewCollector creates a collector that refreshes every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins background collection. Call Stop to terminate.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)

		c.collect()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates background collection and waits for the worker to exit.
func (c *Collector) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := c.provider.HistoryCount(ctx)
	if err != nil {
		logging.Debug("Metrics collection failed: %v", err)
		return
	}
	HistoryEntries.Set(float64(count))
}
