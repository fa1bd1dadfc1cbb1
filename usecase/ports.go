package usecase

import "context"

// Notification template keys understood by the delivery collaborator.
const (
	TemplateBookingCreated           = "BOOKING_CREATED"
	TemplateBookingAccepted          = "BOOKING_ACCEPTED"
	TemplateBookingExpiredNoResponse = "BOOKING_EXPIRED_NO_RESPONSE"
	TemplateBookingExpiredNoPayment  = "BOOKING_EXPIRED_NO_PAYMENT"
	TemplateBookingConfirmed         = "BOOKING_CONFIRMED"
	TemplateBookingStarted           = "BOOKING_STARTED"
	TemplateBookingCompleted         = "BOOKING_COMPLETED"
)

// Notifier is the outbound notification port. Delivery failure must never roll
// back the state transition that triggered it; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, userID, templateKey string, params map[string]string) error
}

// PayoutLedger consumes the payout fact emitted when a booking completes.
// One-way, at-least-once; the implementation owns durability and retries.
type PayoutLedger interface {
	RecordPayout(ctx context.Context, bookingID string, amount float64) error
}
