package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/commerce-console/internal/jobs"
	"github.com/odyssey-erp/commerce-console/internal/orders"
)

// EventSink receives relayed order events. *kafka.Publisher satisfies it.
type EventSink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// LogSink logs events instead of shipping them.
type LogSink struct {
	Logger *slog.Logger
}

// Publish implements EventSink.
func (s LogSink) Publish(_ context.Context, key string, value []byte) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("order event", slog.String("key", key), slog.String("event", string(value)))
	return nil
}

// OrderEventJob relays queued order events to the sink.
type OrderEventJob struct {
	Sink    EventSink
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderEventJob constructs the relay handler.
func NewOrderEventJob(sink EventSink, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderEventJob {
	return &OrderEventJob{Sink: sink, Logger: logger, Metrics: metrics}
}

// Handle forwards one event keyed by order number.
func (j *OrderEventJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sink == nil {
		return errors.New("order event: sink not configured")
	}
	var event orders.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil || event.Type == "" || event.Number == "" {
		return fmt.Errorf("order event: invalid payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskOrderEvent)
	defer func() {
		err = tracker.End(err)
	}()

	if err = j.Sink.Publish(ctx, event.Key(), t.Payload()); err != nil {
		if j.Logger != nil {
			j.Logger.Warn("order event relay failed",
				slog.String("type", event.Type),
				slog.String("number", event.Number),
				slog.Any("error", err))
		}
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
