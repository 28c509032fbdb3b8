package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jalanria/service-rental/internal/common/domain"
	"github.com/jalanria/service-rental/internal/common/kafka"
)

type recorderCall struct {
	bookingID uuid.UUID
	paidAt    time.Time
}

type fakeRecorder struct {
	calls []recorderCall
	err   error
}

func (f *fakeRecorder) MarkPaid(_ context.Context, bookingID uuid.UUID, paidAt time.Time) error {
	f.calls = append(f.calls, recorderCall{bookingID, paidAt})
	return f.err
}

func newTestConsumer(r PaymentRecorder) *PaymentEventConsumer {
	return &PaymentEventConsumer{recorder: r, logger: zap.NewNop()}
}

func paymentMessage(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestPaymentConsumer_MarksBookingPaid(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestConsumer(rec)
	bookingID := uuid.New()
	captured := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := c.handleMessage(context.Background(), paymentMessage(t, PaymentCaptured, PaymentCapturedEvent{
		PaymentID:  "pay-1",
		BookingID:  bookingID,
		Amount:     167000,
		Currency:   "IDR",
		CapturedAt: captured,
	}))

	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, bookingID, rec.calls[0].bookingID)
	assert.True(t, captured.Equal(rec.calls[0].paidAt))
}

func TestPaymentConsumer_IgnoresOtherTypesAndGarbage(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestConsumer(rec)

	assert.NoError(t, c.handleMessage(context.Background(), paymentMessage(t, "payment.refunded", map[string]string{})))
	assert.NoError(t, c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.Empty(t, rec.calls)
}

func TestPaymentConsumer_ErrorHandling(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"unknown booking is dropped", domain.NewNotFoundError("Booking", "x"), false},
		{"cancelled booking is dropped", domain.NewInvalidStateError("cancelled", "paid"), false},
		{"store outage is retried", errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConsumer(&fakeRecorder{err: tt.err})
			err := c.handleMessage(context.Background(), paymentMessage(t, PaymentCaptured, PaymentCapturedEvent{BookingID: uuid.New()}))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
