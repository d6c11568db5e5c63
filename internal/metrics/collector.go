package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventCheckProbed    EventType = "check_probed"
	EventCheckFailed    EventType = "check_failed"
	EventAlert          EventType = "alert"
	EventRotation       EventType = "rotation"
	EventCycleCompleted EventType = "cycle_completed"
)

// Alert and rotation results.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
	ResultRotated = "rotated"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	CheckID    string
	State      string
	StatusCode int
	Duration   time.Duration
	// Stage names the pipeline step that failed for EventCheckFailed.
	Stage string
	// Result is one of the Result constants for EventAlert and EventRotation.
	Result string
}

type Collector struct {
	eventCh  chan Event
	metrics  *Metrics
	prom     *promMetrics
	logger   *slog.Logger
	dropped  atomic.Int64
	stopOnce sync.Once
	done     chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		prom:    newPromMetrics(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Emit queues an event without blocking.
func (c *Collector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
	}
}

// Start consumes events until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the collector has drained its queue after shutdown.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")
	defer c.stopOnce.Do(func() { close(c.done) })

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventCheckProbed:
		c.metrics.RecordProbe(event.CheckID, event.State, event.StatusCode, event.Duration, event.Timestamp)
		c.prom.probes.WithLabelValues(event.State).Inc()
		if event.Duration > 0 {
			c.prom.probeLatency.Observe(event.Duration.Seconds())
		}

	case EventCheckFailed:
		c.metrics.RecordFailure(event.Stage)
		c.prom.failures.WithLabelValues(event.Stage).Inc()

	case EventAlert:
		c.metrics.RecordAlert(event.Result)
		c.prom.alerts.WithLabelValues(event.Result).Inc()

	case EventRotation:
		c.metrics.RecordRotation(event.Result)
		c.prom.rotations.WithLabelValues(event.Result).Inc()

	case EventCycleCompleted:
		c.metrics.RecordCycle(event.Duration, event.Timestamp)
		c.prom.cycleDuration.Observe(event.Duration.Seconds())

	default:
		c.logger.Warn("Unknown metric event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	snap := c.metrics.Snapshot()
	snap.DroppedEvents = c.dropped.Load()
	return snap
}

// Registry exposes the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.prom.registry
}
