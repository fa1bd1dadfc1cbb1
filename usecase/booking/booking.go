package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/repository"
	"github.com/stylebook/backend/usecase"
)

// Config carries the time-window and fee settings of the booking lifecycle.
type Config struct {
	AcceptanceWindow time.Duration
	PaymentWindow    time.Duration
	StartGrace       time.Duration
	ExpiryGrace      time.Duration
	PlatformFeeRate  float64
	MaxAppendRetries int
}

func (c *Config) normalize() {
	if c.AcceptanceWindow <= 0 {
		c.AcceptanceWindow = 5 * time.Minute
	}
	if c.PaymentWindow <= 0 {
		c.PaymentWindow = 10 * time.Minute
	}
	if c.StartGrace <= 0 {
		c.StartGrace = 15 * time.Minute
	}
	if c.PlatformFeeRate <= 0 {
		c.PlatformFeeRate = domain.DefaultPlatformFeeRate
	}
	if c.MaxAppendRetries <= 0 {
		c.MaxAppendRetries = 3
	}
}

// UseCase drives the booking lifecycle. Every command loads the projection,
// checks its guards against a single clock reading, appends through the event
// store's optimistic-concurrency token and only then touches the outbound
// ports. Version conflicts restart the whole load-check-append cycle.
type UseCase struct {
	events   repository.EventStore
	catalog  repository.CatalogRepository
	cache    repository.ProjectionCache
	notifier usecase.Notifier
	payouts  usecase.PayoutLedger
	logger   *zap.Logger
	cfg      Config

	now func() time.Time
}

func New(
	events repository.EventStore,
	catalog repository.CatalogRepository,
	cache repository.ProjectionCache,
	notifier usecase.Notifier,
	payouts usecase.PayoutLedger,
	logger *zap.Logger,
	cfg Config,
) *UseCase {
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		events:   events,
		catalog:  catalog,
		cache:    cache,
		notifier: notifier,
		payouts:  payouts,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the create command payload after transport validation.
type CreateInput struct {
	ClientID       string
	StylistID      string
	ServiceID      string
	RequestedStart time.Time
}

// PaymentResult is the externally produced payment-capture outcome consumed by
// ConfirmPayment. The core records it; it never calls a payment provider.
type PaymentResult struct {
	Success   bool
	Reference string
	Amount    float64
}

// Create opens a new booking in PENDING with the acceptance deadline attached.
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (*domain.Booking, error) {
	now := uc.now()

	if input.ClientID == "" || input.StylistID == "" || input.ServiceID == "" {
		return nil, domain.ErrInvalidPayload
	}

	stylist, err := uc.catalog.GetStylist(ctx, input.StylistID)
	if err != nil {
		return nil, err
	}
	if !stylist.IsActive() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "stylist is not accepting bookings")
	}

	service, err := uc.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if service.StylistID != stylist.ID {
		return nil, domain.ErrServiceNotFound
	}
	if service.Price <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "service has no valid price quote")
	}

	bookingID := uuid.NewString()
	event, err := domain.NewEvent(bookingID, 1, domain.EventCreated, input.ClientID, now, domain.CreatedPayload{
		ClientID:         input.ClientID,
		StylistID:        input.StylistID,
		ServiceID:        input.ServiceID,
		RequestedStart:   input.RequestedStart.UTC(),
		PriceQuote:       service.Price,
		RequestExpiresAt: now.Add(uc.cfg.AcceptanceWindow),
	})
	if err != nil {
		return nil, err
	}

	if _, err := uc.events.Append(ctx, 0, event); err != nil {
		return nil, err
	}

	created, err := domain.Project([]domain.Event{event})
	if err != nil {
		return nil, err
	}

	uc.refreshCache(ctx, created)
	uc.notify(ctx, created.StylistID, usecase.TemplateBookingCreated, map[string]string{
		"booking_id": created.ID,
		"client_id":  created.ClientID,
		"service_id": created.ServiceID,
	})
	return created, nil
}

// Accept moves a PENDING booking to VERIFY_ACCEPTANCE. Acceptance within the
// rapid-accept threshold auto-books: the payment window is skipped entirely.
// Deadline enforcement for slow stylists belongs to the sweeper, so a late
// accept on a not-yet-swept booking still wins; it just isn't auto-booked.
func (uc *UseCase) Accept(ctx context.Context, bookingID, stylistID string) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		if b.Status != domain.StatusPending {
			return nil, domain.NewInvalidTransition("accept", b.Status)
		}
		if b.StylistID != stylistID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the requested stylist may accept")
		}

		autoBooked := !now.After(b.CreatedAt.Add(uc.cfg.AcceptanceWindow))
		payload := domain.AcceptedPayload{
			AcceptedBy: stylistID,
			AcceptedAt: now,
			AutoBooked: autoBooked,
		}
		if !autoBooked {
			deadline := now.Add(uc.cfg.PaymentWindow)
			payload.AcceptanceExpiresAt = &deadline
		}

		event, err := domain.NewEvent(b.ID, b.Version+1, domain.EventAccepted, stylistID, now, payload)
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	}, func(b *domain.Booking) {
		uc.notify(ctx, b.ClientID, usecase.TemplateBookingAccepted, map[string]string{
			"booking_id":  b.ID,
			"auto_booked": fmt.Sprintf("%t", b.AutoBooked),
		})
	})
}

// ConfirmPayment records an externally captured payment and confirms the
// booking, computing the platform fee split. Non-auto-booked bookings must
// confirm inside the payment window.
func (uc *UseCase) ConfirmPayment(ctx context.Context, bookingID, clientID string, result PaymentResult) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		if b.Status != domain.StatusVerifyAcceptance {
			return nil, domain.NewInvalidTransition("confirm payment for", b.Status)
		}
		if b.ClientID != clientID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the booking client may confirm payment")
		}
		if !b.AutoBooked && b.AcceptanceExpiresAt != nil {
			if now.After(b.AcceptanceExpiresAt.Add(uc.cfg.ExpiryGrace)) {
				return nil, domain.NewDeadlinePassed("payment confirmation window has closed")
			}
		}
		if !result.Success {
			return nil, domain.NewError(domain.ErrCodeInvalid, "payment was not successful")
		}

		paymentEvent, err := domain.NewEvent(b.ID, b.Version+1, domain.EventPaymentReceived, clientID, now, domain.PaymentReceivedPayload{
			PaymentRef: result.Reference,
			Amount:     result.Amount,
		})
		if err != nil {
			return nil, err
		}

		platformFee, providerPayout := domain.ComputeFees(b.TotalPrice, uc.cfg.PlatformFeeRate)
		confirmedEvent, err := domain.NewEvent(b.ID, b.Version+2, domain.EventConfirmed, clientID, now, domain.ConfirmedPayload{
			PlatformFeeRate: uc.cfg.PlatformFeeRate,
			PlatformFee:     platformFee,
			ProviderPayout:  providerPayout,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Event{paymentEvent, confirmedEvent}, nil
	}, func(b *domain.Booking) {
		uc.notify(ctx, b.ClientID, usecase.TemplateBookingConfirmed, map[string]string{
			"booking_id":   b.ID,
			"total_price":  fmt.Sprintf("%.2f", b.TotalPrice),
			"platform_fee": fmt.Sprintf("%.2f", b.PlatformFee),
		})
	})
}

// Start transitions a CONFIRMED booking to IN_PROGRESS inside the scheduled
// window: not before requestedStart minus the grace, not after the service's
// scheduled end.
func (uc *UseCase) Start(ctx context.Context, bookingID, stylistID string) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		if b.Status != domain.StatusConfirmed {
			return nil, domain.NewInvalidTransition("start", b.Status)
		}
		if b.StylistID != stylistID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the booking stylist may start the service")
		}
		if now.Before(b.RequestedStart.Add(-uc.cfg.StartGrace)) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "too early to start the service")
		}
		scheduledEnd, err := uc.scheduledEnd(ctx, b)
		if err != nil {
			return nil, err
		}
		if now.After(scheduledEnd) {
			return nil, domain.NewDeadlinePassed("scheduled service window has passed")
		}

		event, err := domain.NewEvent(b.ID, b.Version+1, domain.EventStarted, stylistID, now, domain.StartedPayload{
			StartedBy: stylistID,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	}, func(b *domain.Booking) {
		uc.notify(ctx, b.ClientID, usecase.TemplateBookingStarted, map[string]string{"booking_id": b.ID})
	})
}

// Complete finishes an IN_PROGRESS booking and emits the payout fact for the
// provider's share. Ledger delivery is at-least-once and never fails the
// transition.
func (uc *UseCase) Complete(ctx context.Context, bookingID, stylistID string) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		if b.Status != domain.StatusInProgress {
			return nil, domain.NewInvalidTransition("complete", b.Status)
		}
		if b.StylistID != stylistID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the booking stylist may complete the service")
		}

		event, err := domain.NewEvent(b.ID, b.Version+1, domain.EventCompleted, stylistID, now, domain.CompletedPayload{
			CompletedBy: stylistID,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	}, func(b *domain.Booking) {
		if uc.payouts != nil {
			if err := uc.payouts.RecordPayout(ctx, b.ID, b.ProviderPayout); err != nil {
				uc.logger.Error("payout fact emission failed",
					zap.String("booking_id", b.ID), zap.Error(err))
			}
		}
		uc.notify(ctx, b.StylistID, usecase.TemplateBookingCompleted, map[string]string{
			"booking_id": b.ID,
			"payout":     fmt.Sprintf("%.2f", b.ProviderPayout),
		})
	})
}

// Cancel voids a booking that has not started yet. Either side of the booking
// may cancel.
func (uc *UseCase) Cancel(ctx context.Context, bookingID, actorID, reason string) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		switch b.Status {
		case domain.StatusPending, domain.StatusVerifyAcceptance, domain.StatusConfirmed:
		default:
			return nil, domain.NewInvalidTransition("cancel", b.Status)
		}
		if actorID != b.ClientID && actorID != b.StylistID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "actor is not a party to this booking")
		}

		event, err := domain.NewEvent(b.ID, b.Version+1, domain.EventCancelled, actorID, now, domain.CancelledPayload{
			CancelledBy: actorID,
			Reason:      reason,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	}, nil)
}

// NoShow marks a confirmed or in-progress booking where the client never
// checked in past the scheduled start.
func (uc *UseCase) NoShow(ctx context.Context, bookingID, stylistID, reason string) (*domain.Booking, error) {
	return uc.execute(ctx, bookingID, func(b *domain.Booking, now time.Time) ([]domain.Event, error) {
		if b.Status != domain.StatusConfirmed && b.Status != domain.StatusInProgress {
			return nil, domain.NewInvalidTransition("mark no-show for", b.Status)
		}
		if b.StylistID != stylistID {
			return nil, domain.NewError(domain.ErrCodeForbidden, "only the booking stylist may report a no-show")
		}
		if !now.After(b.RequestedStart) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "cannot report a no-show before the scheduled start")
		}

		event, err := domain.NewEvent(b.ID, b.Version+1, domain.EventNoShow, stylistID, now, domain.NoShowPayload{
			ReportedBy: stylistID,
			Reason:     reason,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	}, nil)
}

// Expire drives a booking past its active deadline to EXPIRED. It reports
// (false, nil) when there is nothing to do: the booking moved on, was already
// expired, or its deadline has not strictly elapsed. Used by the sweeper and
// safe under concurrent sweeps; losers of the append race converge to a no-op
// on reload. Exhausting the retry budget on a still-expirable booking surfaces
// ErrBusy so the sweep counts it as a failure, not a skip.
func (uc *UseCase) Expire(ctx context.Context, bookingID string) (bool, error) {
	now := uc.now()

	for attempt := 0; attempt < uc.cfg.MaxAppendRetries; attempt++ {
		current, events, err := uc.loadBooking(ctx, bookingID)
		if err != nil {
			return false, err
		}

		deadline, active := current.ActiveDeadline()
		if !active {
			return false, nil
		}
		if !now.After(deadline.Add(uc.cfg.ExpiryGrace)) {
			return false, nil
		}

		reason := expirationReason(current.Status, uc.cfg)
		event, err := domain.NewEvent(current.ID, current.Version+1, domain.EventExpired, "system", now, domain.ExpiredPayload{
			Reason: reason,
		})
		if err != nil {
			return false, err
		}

		if _, err := uc.events.Append(ctx, current.Version, event); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeConflict) {
				continue
			}
			return false, err
		}

		expired, err := domain.Project(append(events, event))
		if err != nil {
			return false, err
		}
		uc.refreshCache(ctx, expired)

		switch current.Status {
		case domain.StatusPending:
			uc.notify(ctx, expired.ClientID, usecase.TemplateBookingExpiredNoResponse, map[string]string{
				"booking_id": expired.ID,
				"reason":     reason,
			})
		case domain.StatusVerifyAcceptance:
			uc.notify(ctx, expired.StylistID, usecase.TemplateBookingExpiredNoPayment, map[string]string{
				"booking_id": expired.ID,
				"reason":     reason,
			})
		}
		return true, nil
	}
	return false, domain.ErrBusy
}

// Get resolves the current projection, preferring the cache and falling back
// to a log replay.
func (uc *UseCase) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, bookingID); err == nil {
			return cached, nil
		}
	}
	current, _, err := uc.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	uc.refreshCache(ctx, current)
	return current, nil
}

// execute runs one command as a bounded load-check-append retry unit. The
// clock is read once before the first attempt so retries cannot flip a guard
// decision mid-command. All events of one command append as a single atomic
// batch, so a lost race leaves nothing durable and the rebuilt command never
// re-emits an already-recorded event. The after callback fires only once the
// append is durable.
func (uc *UseCase) execute(
	ctx context.Context,
	bookingID string,
	build func(b *domain.Booking, now time.Time) ([]domain.Event, error),
	after func(b *domain.Booking),
) (*domain.Booking, error) {
	now := uc.now()

	for attempt := 0; attempt < uc.cfg.MaxAppendRetries; attempt++ {
		current, events, err := uc.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		newEvents, err := build(current, now)
		if err != nil {
			return nil, err
		}

		if _, err := uc.events.Append(ctx, current.Version, newEvents...); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeConflict) {
				uc.logger.Debug("append lost optimistic-concurrency race, retrying",
					zap.String("booking_id", bookingID), zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}

		updated, err := domain.Project(append(events, newEvents...))
		if err != nil {
			return nil, err
		}
		uc.refreshCache(ctx, updated)
		if after != nil {
			after(updated)
		}
		return updated, nil
	}
	return nil, domain.ErrBusy
}

func (uc *UseCase) loadBooking(ctx context.Context, bookingID string) (*domain.Booking, []domain.Event, error) {
	events, err := uc.events.Load(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	current, err := domain.Project(events)
	if err != nil {
		return nil, nil, err
	}
	return current, events, nil
}

func (uc *UseCase) scheduledEnd(ctx context.Context, b *domain.Booking) (time.Time, error) {
	service, err := uc.catalog.GetService(ctx, b.ServiceID)
	if err != nil {
		return time.Time{}, err
	}
	return b.RequestedStart.Add(service.Duration), nil
}

// notify attempts delivery and swallows failures: a booking's durability never
// depends on a downstream notification channel.
func (uc *UseCase) notify(ctx context.Context, userID, templateKey string, params map[string]string) {
	if uc.notifier == nil || userID == "" {
		return
	}
	if err := uc.notifier.Notify(ctx, userID, templateKey, params); err != nil {
		uc.logger.Warn("notification delivery failed",
			zap.String("user_id", userID),
			zap.String("template", templateKey),
			zap.Error(err))
	}
}

func (uc *UseCase) refreshCache(ctx context.Context, booking *domain.Booking) {
	if uc.cache == nil || booking == nil {
		return
	}
	if err := uc.cache.Put(ctx, booking); err != nil {
		uc.logger.Debug("projection cache refresh failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func expirationReason(status domain.BookingStatus, cfg Config) string {
	switch status {
	case domain.StatusPending:
		return fmt.Sprintf("stylist did not respond within %d minutes", int(cfg.AcceptanceWindow.Minutes()))
	case domain.StatusVerifyAcceptance:
		return fmt.Sprintf("client did not confirm payment within %d minutes", int(cfg.PaymentWindow.Minutes()))
	default:
		return "booking deadline elapsed"
	}
}
