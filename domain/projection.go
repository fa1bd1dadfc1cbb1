package domain

import (
	"encoding/json"
	"fmt"
)

// Project folds an ordered event sequence into the current booking state.
// The fold is pure: the same event list always yields the same projection,
// which is what makes crash recovery a plain replay.
func Project(events []Event) (*Booking, error) {
	if len(events) == 0 {
		return nil, ErrBookingNotFound
	}
	if events[0].Type != EventCreated {
		return nil, NewError(ErrCodeInternal, "event log does not start with CREATED")
	}

	booking := &Booking{}
	for i, event := range events {
		if event.Sequence != int64(i)+1 {
			return nil, NewError(ErrCodeInternal,
				fmt.Sprintf("event log for booking %s has a gap at sequence %d", event.BookingID, event.Sequence))
		}
		if err := apply(booking, event); err != nil {
			return nil, err
		}
		booking.Version = event.Sequence
	}
	return booking, nil
}

func apply(b *Booking, event Event) error {
	switch event.Type {
	case EventCreated:
		var p CreatedPayload
		if err := decode(event, &p); err != nil {
			return err
		}
		b.ID = event.BookingID
		b.ClientID = p.ClientID
		b.StylistID = p.StylistID
		b.ServiceID = p.ServiceID
		b.RequestedStart = p.RequestedStart
		b.TotalPrice = p.PriceQuote
		b.CreatedAt = event.OccurredAt
		b.RequestExpiresAt = p.RequestExpiresAt
		b.Status = StatusPending

	case EventAccepted:
		var p AcceptedPayload
		if err := decode(event, &p); err != nil {
			return err
		}
		acceptedAt := p.AcceptedAt
		b.AcceptedAt = &acceptedAt
		b.AutoBooked = p.AutoBooked
		b.AcceptanceExpiresAt = p.AcceptanceExpiresAt
		b.Status = StatusVerifyAcceptance

	case EventPaymentReceived:
		var p PaymentReceivedPayload
		if err := decode(event, &p); err != nil {
			return err
		}
		b.PaymentRef = p.PaymentRef

	case EventConfirmed:
		var p ConfirmedPayload
		if err := decode(event, &p); err != nil {
			return err
		}
		confirmedAt := event.OccurredAt
		b.ConfirmedAt = &confirmedAt
		b.PlatformFeeRate = p.PlatformFeeRate
		b.PlatformFee = p.PlatformFee
		b.ProviderPayout = p.ProviderPayout
		b.Status = StatusConfirmed

	case EventStarted:
		startedAt := event.OccurredAt
		b.StartedAt = &startedAt
		b.Status = StatusInProgress

	case EventCompleted:
		completedAt := event.OccurredAt
		b.CompletedAt = &completedAt
		b.Status = StatusCompleted

	case EventCancelled:
		cancelledAt := event.OccurredAt
		b.CancelledAt = &cancelledAt
		b.Status = StatusCancelled

	case EventExpired:
		var p ExpiredPayload
		if err := decode(event, &p); err != nil {
			return err
		}
		expiredAt := event.OccurredAt
		b.ExpiredAt = &expiredAt
		b.ExpirationReason = p.Reason
		b.Status = StatusExpired

	case EventNoShow:
		b.Status = StatusNoShow

	default:
		return NewError(ErrCodeInternal, fmt.Sprintf("unknown event type %s", event.Type))
	}
	return nil
}

func decode(event Event, target interface{}) error {
	if err := json.Unmarshal(event.Payload, target); err != nil {
		return WrapError(ErrCodeInternal,
			fmt.Sprintf("decode %s payload for booking %s", event.Type, event.BookingID), err)
	}
	return nil
}
