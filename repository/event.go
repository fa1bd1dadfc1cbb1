package repository

import (
	"context"
	"time"

	"github.com/stylebook/backend/domain"
)

// EventStore is the append-only, per-booking ordered log of domain events.
// It is the single source of truth; every other view is derived from it.
type EventStore interface {
	// Append atomically appends the given events iff expectedVersion equals
	// the current max sequence for the booking. Multi-event commands land as
	// one all-or-nothing unit: a conflict leaves nothing durable. Returns the
	// new version on success and domain.ErrVersionConflict when a concurrent
	// writer already advanced the booking.
	Append(ctx context.Context, expectedVersion int64, events ...domain.Event) (int64, error)

	// Load returns all events for a booking, oldest first.
	// Returns domain.ErrBookingNotFound when no events exist.
	Load(ctx context.Context, bookingID string) ([]domain.Event, error)

	// FindActiveBefore returns ids of bookings sitting in the given status
	// whose governing deadline elapsed at or before the cutoff. Served from
	// the deadline index, not by replaying logs.
	FindActiveBefore(ctx context.Context, cutoff time.Time, status domain.BookingStatus) ([]string, error)
}
