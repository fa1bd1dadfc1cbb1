package domain

import (
	"encoding/json"
	"time"
)

// EventType enumerates every fact that can be appended to a booking's log.
type EventType string

const (
	EventCreated         EventType = "CREATED"
	EventAccepted        EventType = "ACCEPTED"
	EventPaymentReceived EventType = "PAYMENT_RECEIVED"
	EventConfirmed       EventType = "CONFIRMED"
	EventStarted         EventType = "STARTED"
	EventCompleted       EventType = "COMPLETED"
	EventCancelled       EventType = "CANCELLED"
	EventExpired         EventType = "EXPIRED"
	EventNoShow          EventType = "NO_SHOW"
)

// Event is one immutable entry in a booking's append-only log. Sequence is
// gapless per booking and starts at 1; it doubles as the optimistic-concurrency
// token for the next append.
type Event struct {
	BookingID  string          `json:"booking_id"`
	Sequence   int64           `json:"sequence"`
	Type       EventType       `json:"type"`
	ActorID    string          `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Payload shapes, one fixed struct per event type. Deadlines are carried in the
// payload rather than recomputed, so a window-configuration change never
// rewrites history.

type CreatedPayload struct {
	ClientID         string    `json:"client_id"`
	StylistID        string    `json:"stylist_id"`
	ServiceID        string    `json:"service_id"`
	RequestedStart   time.Time `json:"requested_start"`
	PriceQuote       float64   `json:"price_quote"`
	RequestExpiresAt time.Time `json:"request_expires_at"`
}

type AcceptedPayload struct {
	AcceptedBy string `json:"accepted_by"`
	// AcceptedAt mirrors the event's OccurredAt so the projection does not
	// depend on envelope fields for business timestamps.
	AcceptedAt          time.Time  `json:"accepted_at"`
	AutoBooked          bool       `json:"auto_booked"`
	AcceptanceExpiresAt *time.Time `json:"acceptance_expires_at,omitempty"`
}

type PaymentReceivedPayload struct {
	PaymentRef string  `json:"payment_ref"`
	Amount     float64 `json:"amount"`
}

type ConfirmedPayload struct {
	PlatformFeeRate float64 `json:"platform_fee_rate"`
	PlatformFee     float64 `json:"platform_fee"`
	ProviderPayout  float64 `json:"provider_payout"`
}

type StartedPayload struct {
	StartedBy string `json:"started_by"`
}

type CompletedPayload struct {
	CompletedBy string `json:"completed_by"`
}

type CancelledPayload struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

type ExpiredPayload struct {
	Reason string `json:"reason"`
}

type NoShowPayload struct {
	ReportedBy string `json:"reported_by"`
	Reason     string `json:"reason,omitempty"`
}

// NewEvent assembles an event envelope around a typed payload.
func NewEvent(bookingID string, sequence int64, eventType EventType, actorID string, occurredAt time.Time, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, WrapError(ErrCodeInternal, "marshal event payload", err)
	}
	return Event{
		BookingID:  bookingID,
		Sequence:   sequence,
		Type:       eventType,
		ActorID:    actorID,
		OccurredAt: occurredAt.UTC(),
		Payload:    body,
	}, nil
}
