package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/common/kafka"
)

// PaymentRecorder applies captured payments to bookings.
type PaymentRecorder interface {
	MarkPaid(ctx context.Context, bookingID uuid.UUID, paidAt time.Time) error
}

// PaymentEventConsumer listens to payment events and marks bookings paid.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	recorder PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	recorder PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data", zap.Error(err))
		return nil
	}

	paidAt := evt.CapturedAt
	if paidAt.IsZero() {
		paidAt = cloudEvent.Time
	}

	c.logger.Info("processing payment captured event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID),
	)

	if err := c.recorder.MarkPaid(ctx, evt.BookingID, paidAt); err != nil {
		if isPermanent(err) {
			c.logger.Warn("dropping payment for unusable booking",
				zap.String("booking_id", evt.BookingID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to mark booking paid",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking marked paid", zap.String("booking_id", evt.BookingID.String()))
	return nil
}

// isPermanent reports errors a redelivery cannot fix.
func isPermanent(err error) bool {
	var (
		notFound   *domain.NotFoundError
		state      *domain.InvalidStateError
		validation *domain.ValidationError
	)
	return errors.As(err, &notFound) || errors.As(err, &state) || errors.As(err, &validation)
}
