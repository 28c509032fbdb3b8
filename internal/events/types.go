package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents      = "booking.events"
	TopicNotificationEvents = "notification.events"
	TopicPaymentEvents      = "payment.events"
)

// CloudEvent types.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingStarted   = "booking.started"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"

	WhatsAppRequested = "notification.whatsapp.requested"

	PaymentCaptured = "payment.captured"
)

// BookingCreatedEvent is published once a wizard has been turned into a booking.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Mode          string     `json:"mode"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	VehicleType   string     `json:"vehicle_type"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	OriginLat     float64    `json:"origin_lat"`
	OriginLng     float64    `json:"origin_lng"`
	DestLat       float64    `json:"dest_lat"`
	DestLng       float64    `json:"dest_lng"`
	DistanceKm    float64    `json:"distance_km"`
	Price         int64      `json:"price"`
	Currency      string     `json:"currency"`
	PaymentMethod string     `json:"payment_method"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// BookingStatusEvent is published on every later status change.
type BookingStatusEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// WhatsAppRequestedEvent asks the messaging gateway to deliver a text.
type WhatsAppRequestedEvent struct {
	RecipientPhone string    `json:"recipient_phone"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from the payment service.
type PaymentCapturedEvent struct {
	PaymentID  string    `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	CapturedAt time.Time `json:"captured_at"`
}
