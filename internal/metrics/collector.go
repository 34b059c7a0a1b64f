package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestHandled    EventType = "request_handled"
	EventUpstreamCompleted EventType = "upstream_completed"
	EventUpstreamFailed    EventType = "upstream_failed"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	Outcome    string
	Upstream   string
	Duration   time.Duration
	StatusCode int
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

// Emit queues an event without blocking. Events are dropped when the
// buffer is full.
func (c *Collector) Emit(event Event) bool {
	if c == nil {
		return false
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
		return true
	default:
		c.metrics.IncrementDropped()
		return false
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
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventRequestHandled:
		c.metrics.RecordOutcome(event.Outcome, event.StatusCode)
	case EventUpstreamCompleted:
		c.metrics.RecordUpstream(event.Upstream, event.Duration, event.StatusCode)
	case EventUpstreamFailed:
		c.metrics.RecordUpstreamFailure(event.Upstream)
	default:
		c.logger.Debug("Unknown metric event", slog.String("type", string(event.Type)))
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
