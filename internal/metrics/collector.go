package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestForwarded  EventType = "request_forwarded"
	EventResponseCompleted EventType = "response_completed"
	EventProbeResult       EventType = "probe_result"
	EventTransition        EventType = "transition"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	Upstream   string
	Duration   time.Duration
	StatusCode int
	Success    bool
	ToBackup   bool
}

type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- Event {
	return c.eventCh
}

// Emit sends an event without blocking; events are dropped when the
// buffer is full.
func (c *Collector) Emit(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventRequestForwarded:
		c.metrics.IncrementForwards(event.Upstream)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Upstream, event.Duration, event.StatusCode)

	case EventProbeResult:
		c.metrics.RecordProbe(event.Success)

	case EventTransition:
		c.metrics.RecordTransition(event.ToBackup)
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
	return c.metrics.Snapshot()
}
