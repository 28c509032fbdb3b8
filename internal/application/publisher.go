package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/kafka"
	"github.com/jalanria/service-rental/internal/events"
)

const (
	eventSource    = "service-rental"
	publishTimeout = 5 * time.Second
)

// EventPublisher delivers CloudEvents to a topic. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// eventEmitter publishes fire-and-forget events in the background;
// failures are logged only.
type eventEmitter struct {
	producer EventPublisher
	logger   *zap.Logger
	timeout  time.Duration
	inflight *sync.WaitGroup
}

func newEventEmitter(producer EventPublisher, logger *zap.Logger) eventEmitter {
	return eventEmitter{
		producer: producer,
		logger:   logger,
		timeout:  publishTimeout,
		inflight: &sync.WaitGroup{},
	}
}

// publish hands the event to the producer without blocking the caller. The
// send outlives the caller's context and is bounded by the emitter timeout.
func (e eventEmitter) publish(ctx context.Context, topic, eventType, subject string, data interface{}) {
	if e.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent = cloudEvent.WithSubject(subject)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		if err := e.producer.PublishEvent(pctx, topic, cloudEvent); err != nil {
			e.logger.Error("failed to publish event",
				zap.String("topic", topic),
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}()
}

// wait blocks until every event handed to publish has been sent or dropped.
func (e eventEmitter) wait() {
	if e.inflight != nil {
		e.inflight.Wait()
	}
}

// Notifier dispatches a text message to a phone number.
type Notifier interface {
	Notify(ctx context.Context, recipientPhone, message string) error
}

// KafkaNotifier hands WhatsApp messages to the messaging gateway through
// the notification topic.
type KafkaNotifier struct {
	producer EventPublisher
}

// NewKafkaNotifier creates a KafkaNotifier.
func NewKafkaNotifier(producer EventPublisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

// Notify publishes a notification.whatsapp.requested event.
func (n *KafkaNotifier) Notify(ctx context.Context, recipientPhone, message string) error {
	evt := events.WhatsAppRequestedEvent{
		RecipientPhone: recipientPhone,
		Message:        message,
		OccurredAt:     time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, events.WhatsAppRequested, evt)
	if err != nil {
		return err
	}
	return n.producer.PublishEvent(ctx, events.TopicNotificationEvents, cloudEvent.WithSubject(recipientPhone))
}
