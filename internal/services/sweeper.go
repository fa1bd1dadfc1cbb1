package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/stylebook/backend/domain"
)

// DeadlineSource yields bookings whose active deadline elapsed before a cutoff.
type DeadlineSource interface {
	FindActiveBefore(ctx context.Context, cutoff time.Time, status domain.BookingStatus) ([]string, error)
}

// Expirer drives a single booking through the expire transition.
type Expirer interface {
	Expire(ctx context.Context, bookingID string) (bool, error)
}

// SweeperConfig controls the sweep schedule.
type SweeperConfig struct {
	Interval time.Duration
}

// Sweeper periodically expires bookings that outlived their acceptance or
// payment window. It goes through the same command path as interactive
// requests, so a booking that moved on since the scan is a silent no-op and
// concurrent sweeper instances stay safe without any locking.
type Sweeper struct {
	deadlines DeadlineSource
	bookings  Expirer
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       SweeperConfig
}

func NewSweeper(deadlines DeadlineSource, bookings Expirer, logger *zap.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		deadlines: deadlines,
		bookings:  bookings,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		s.Sweep(ctx)
	})

	return s
}

// Start launches the cron scheduler.
func (s *Sweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("expiration sweeper started", zap.Duration("interval", s.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (s *Sweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("expiration sweeper stopped")
}

// Sweep runs one pass over both deadline kinds. Each booking is handled in
// isolation: one failure never aborts the batch.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	var expired, skipped, failed int
	for _, status := range []domain.BookingStatus{domain.StatusPending, domain.StatusVerifyAcceptance} {
		ids, err := s.deadlines.FindActiveBefore(ctx, now, status)
		if err != nil {
			s.logger.Error("deadline scan failed", zap.String("status", string(status)), zap.Error(err))
			failed++
			continue
		}

		for _, id := range ids {
			ok, err := s.bookings.Expire(ctx, id)
			switch {
			case err != nil:
				failed++
				s.logger.Error("expire transition failed", zap.String("booking_id", id), zap.Error(err))
			case ok:
				expired++
			default:
				skipped++
			}
		}
	}

	if expired > 0 || failed > 0 {
		s.logger.Info("expiration sweep finished",
			zap.Int("expired", expired),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed))
	} else {
		s.logger.Debug("expiration sweep finished", zap.Int("skipped", skipped))
	}
}
