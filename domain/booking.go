package domain

import "time"

// BookingStatus is the projected lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending          BookingStatus = "PENDING"
	StatusVerifyAcceptance BookingStatus = "VERIFY_ACCEPTANCE"
	StatusConfirmed        BookingStatus = "CONFIRMED"
	StatusInProgress       BookingStatus = "IN_PROGRESS"
	StatusCompleted        BookingStatus = "COMPLETED"
	StatusCancelled        BookingStatus = "CANCELLED"
	StatusExpired          BookingStatus = "EXPIRED"
	StatusNoShow           BookingStatus = "NO_SHOW"
)

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired, StatusNoShow:
		return true
	}
	return false
}

// Booking is the current-state view of one aggregate, rebuilt by folding its
// event log in sequence order. It is a derived cache, never the source of truth.
type Booking struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	StylistID string `json:"stylist_id"`
	ServiceID string `json:"service_id"`

	Status         BookingStatus `json:"status"`
	RequestedStart time.Time     `json:"requested_start"`
	AutoBooked     bool          `json:"auto_booked"`

	TotalPrice      float64 `json:"total_price"`
	PlatformFeeRate float64 `json:"platform_fee_rate,omitempty"`
	PlatformFee     float64 `json:"platform_fee,omitempty"`
	ProviderPayout  float64 `json:"provider_payout,omitempty"`
	PaymentRef      string  `json:"payment_ref,omitempty"`

	CreatedAt           time.Time  `json:"created_at"`
	RequestExpiresAt    time.Time  `json:"request_expires_at"`
	AcceptedAt          *time.Time `json:"accepted_at,omitempty"`
	AcceptanceExpiresAt *time.Time `json:"acceptance_expires_at,omitempty"`
	ConfirmedAt         *time.Time `json:"confirmed_at,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt           *time.Time `json:"expired_at,omitempty"`
	ExpirationReason    string     `json:"expiration_reason,omitempty"`

	// Version equals the sequence of the last folded event and is the
	// expectedVersion for the next append.
	Version int64 `json:"version"`
}

// ActiveDeadline returns the deadline currently governing the booking, if any.
// PENDING bookings are bounded by the acceptance window, VERIFY_ACCEPTANCE
// bookings by the payment window.
func (b *Booking) ActiveDeadline() (time.Time, bool) {
	switch b.Status {
	case StatusPending:
		return b.RequestExpiresAt, true
	case StatusVerifyAcceptance:
		if b.AcceptanceExpiresAt != nil {
			return *b.AcceptanceExpiresAt, true
		}
	}
	return time.Time{}, false
}
