package repository

import (
	"context"

	"github.com/stylebook/backend/domain"
)

// ProjectionCache is a read-side cache of folded bookings. A miss or a stale
// entry is never an error condition; callers fall back to replaying the log.
type ProjectionCache interface {
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	Put(ctx context.Context, booking *domain.Booking) error
	Invalidate(ctx context.Context, bookingID string) error
}
