package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	BookingNumber string `json:"booking_number"`
	Amount        int64  `json:"amount"`
}

func TestCloudEvent_RoundTripData(t *testing.T) {
	evt, err := NewCloudEvent("service-rental", "rental.booking.created", samplePayload{BookingNumber: "TR-ABC123", Amount: 125000})
	require.NoError(t, err)
	assert.Equal(t, "1.0", evt.SpecVersion)
	assert.NotEmpty(t, evt.ID)

	var got samplePayload
	require.NoError(t, evt.ParseData(&got))
	assert.Equal(t, int64(125000), got.Amount)
}

func TestParseCloudEvent_RejectsMissingType(t *testing.T) {
	_, err := ParseCloudEvent([]byte(`{"specversion":"1.0","id":"x"}`))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestCloudEvent_WithSubject(t *testing.T) {
	evt, err := NewCloudEvent("s", "t", struct{}{})
	require.NoError(t, err)
	keyed := evt.WithSubject("booking-1")
	assert.Equal(t, "booking-1", keyed.Subject)
	assert.Empty(t, evt.Subject)
}
