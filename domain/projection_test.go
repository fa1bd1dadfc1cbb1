package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func createdEvent(t *testing.T, bookingID string, at time.Time) Event {
	t.Helper()
	event, err := NewEvent(bookingID, 1, EventCreated, "client-1", at, CreatedPayload{
		ClientID:         "client-1",
		StylistID:        "stylist-1",
		ServiceID:        "service-1",
		RequestedStart:   at.Add(24 * time.Hour),
		PriceQuote:       50.00,
		RequestExpiresAt: at.Add(5 * time.Minute),
	})
	require.NoError(t, err)
	return event
}

func acceptedEvent(t *testing.T, bookingID string, sequence int64, at time.Time, autoBooked bool) Event {
	t.Helper()
	payload := AcceptedPayload{
		AcceptedBy: "stylist-1",
		AcceptedAt: at,
		AutoBooked: autoBooked,
	}
	if !autoBooked {
		deadline := at.Add(10 * time.Minute)
		payload.AcceptanceExpiresAt = &deadline
	}
	event, err := NewEvent(bookingID, sequence, EventAccepted, "stylist-1", at, payload)
	require.NoError(t, err)
	return event
}

func TestProjectCreatedSetsAcceptanceDeadline(t *testing.T) {
	booking, err := Project([]Event{createdEvent(t, "b-1", projBase)})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, "b-1", booking.ID)
	assert.Equal(t, 50.00, booking.TotalPrice)
	assert.Equal(t, int64(1), booking.Version)
	assert.Equal(t, 300000*time.Millisecond, booking.RequestExpiresAt.Sub(booking.CreatedAt))
}

func TestProjectAcceptedSetsPaymentDeadline(t *testing.T) {
	acceptedAt := projBase.Add(7 * time.Minute)
	booking, err := Project([]Event{
		createdEvent(t, "b-1", projBase),
		acceptedEvent(t, "b-1", 2, acceptedAt, false),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusVerifyAcceptance, booking.Status)
	assert.False(t, booking.AutoBooked)
	require.NotNil(t, booking.AcceptanceExpiresAt)
	require.NotNil(t, booking.AcceptedAt)
	assert.Equal(t, 600000*time.Millisecond, booking.AcceptanceExpiresAt.Sub(*booking.AcceptedAt))
}

func TestProjectAutoBookedHasNoPaymentDeadline(t *testing.T) {
	booking, err := Project([]Event{
		createdEvent(t, "b-1", projBase),
		acceptedEvent(t, "b-1", 2, projBase.Add(3*time.Minute), true),
	})
	require.NoError(t, err)

	assert.True(t, booking.AutoBooked)
	assert.Nil(t, booking.AcceptanceExpiresAt)

	_, active := booking.ActiveDeadline()
	assert.False(t, active)
}

func TestProjectIsPureFold(t *testing.T) {
	events := []Event{
		createdEvent(t, "b-1", projBase),
		acceptedEvent(t, "b-1", 2, projBase.Add(3*time.Minute), true),
	}

	first, err := Project(events)
	require.NoError(t, err)
	second, err := Project(events)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProjectFullLifecycle(t *testing.T) {
	paymentEvent, err := NewEvent("b-1", 3, EventPaymentReceived, "client-1", projBase.Add(4*time.Minute), PaymentReceivedPayload{
		PaymentRef: "pay-123",
		Amount:     50.00,
	})
	require.NoError(t, err)
	confirmedEvent, err := NewEvent("b-1", 4, EventConfirmed, "client-1", projBase.Add(4*time.Minute), ConfirmedPayload{
		PlatformFeeRate: 0.03,
		PlatformFee:     1.50,
		ProviderPayout:  48.50,
	})
	require.NoError(t, err)
	startedEvent, err := NewEvent("b-1", 5, EventStarted, "stylist-1", projBase.Add(24*time.Hour), StartedPayload{StartedBy: "stylist-1"})
	require.NoError(t, err)
	completedEvent, err := NewEvent("b-1", 6, EventCompleted, "stylist-1", projBase.Add(25*time.Hour), CompletedPayload{CompletedBy: "stylist-1"})
	require.NoError(t, err)

	booking, err := Project([]Event{
		createdEvent(t, "b-1", projBase),
		acceptedEvent(t, "b-1", 2, projBase.Add(3*time.Minute), true),
		paymentEvent,
		confirmedEvent,
		startedEvent,
		completedEvent,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, booking.Status)
	assert.True(t, booking.Status.IsTerminal())
	assert.Equal(t, "pay-123", booking.PaymentRef)
	assert.Equal(t, 1.50, booking.PlatformFee)
	assert.Equal(t, 48.50, booking.ProviderPayout)
	assert.Equal(t, int64(6), booking.Version)
	assert.NotNil(t, booking.ConfirmedAt)
	assert.NotNil(t, booking.StartedAt)
	assert.NotNil(t, booking.CompletedAt)
}

func TestProjectExpiredCarriesReason(t *testing.T) {
	expiredEvent, err := NewEvent("b-1", 2, EventExpired, "system", projBase.Add(6*time.Minute), ExpiredPayload{
		Reason: "stylist did not respond within 5 minutes",
	})
	require.NoError(t, err)

	booking, err := Project([]Event{createdEvent(t, "b-1", projBase), expiredEvent})
	require.NoError(t, err)

	assert.Equal(t, StatusExpired, booking.Status)
	assert.Contains(t, booking.ExpirationReason, "5 minutes")
	assert.NotNil(t, booking.ExpiredAt)
}

func TestProjectEmptyLogIsNotFound(t *testing.T) {
	_, err := Project(nil)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestProjectRejectsSequenceGap(t *testing.T) {
	gapped := acceptedEvent(t, "b-1", 3, projBase.Add(time.Minute), true)
	_, err := Project([]Event{createdEvent(t, "b-1", projBase), gapped})
	assert.True(t, IsDomainError(err, ErrCodeInternal))
}
