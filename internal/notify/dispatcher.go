package notify

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	contracts "followup/contracts/mq"
	"followup/pkg/metrics"
)

// Publisher is the slice of pkg/mq.Publisher the dispatcher needs.
type Publisher interface {
	Publish(routingKey string, payload any) error
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// Dispatcher publishes events to the MQ in the background, decoupled from
// the request/response lifecycle. Delivery is at-most-once: a failed publish
// is logged, counted, and forwarded to the dead-letter exchange, never
// retried and never surfaced to the caller that produced the event.
type Dispatcher struct {
	publisher Publisher
	logger    *zap.Logger
	events    chan contracts.Event
	wg        sync.WaitGroup
}

func NewDispatcher(publisher Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		events:    make(chan contracts.Event, 256),
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting notification dispatcher",
		zap.Int("queue_capacity", cap(d.events)),
	)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				d.drain()
				d.logger.Info("Notification dispatcher stopped")
				return
			case event := <-d.events:
				d.dispatch(event)
			}
		}
	}()
}

// Wait blocks until the dispatch loop has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an event to the dispatcher without blocking. When the queue
// is full the event is dropped and counted; the producer already committed
// its response and must not be held up.
func (d *Dispatcher) Enqueue(eventType string, payload any) {
	event, err := contracts.NewEvent(eventType, payload)
	if err != nil {
		d.logger.Error("Failed to encode event payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		metrics.IncrementNotifyPublishFailure(eventType, "encode_error")
		return
	}

	select {
	case d.events <- event:
	default:
		d.logger.Error("Notification queue full, dropping event",
			zap.String("event_type", eventType),
		)
		metrics.IncrementNotifyPublishFailure(eventType, "queue_full")
	}
}

// drain publishes whatever is still queued at shutdown.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.dispatch(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(event contracts.Event) {
	if err := d.publisher.Publish(event.Type, event); err != nil {
		d.logger.Error("Failed to publish event",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		metrics.IncrementNotifyPublishFailure(event.Type, "publish_error")

		body, marshalErr := json.Marshal(event)
		if marshalErr != nil {
			return
		}
		if dlqErr := d.publisher.PublishToDLQ(event.Type, body, err.Error()); dlqErr != nil {
			d.logger.Error("Failed to publish event to DLQ",
				zap.String("event_type", event.Type),
				zap.Error(dlqErr),
			)
		}
		return
	}

	d.logger.Debug("Event published successfully",
		zap.String("event_type", event.Type),
	)
}
