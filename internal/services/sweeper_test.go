package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stylebook/backend/domain"
)

type stubDeadlineSource struct {
	byStatus map[domain.BookingStatus][]string
	scanErr  map[domain.BookingStatus]error
	scanned  []domain.BookingStatus
}

func (s *stubDeadlineSource) FindActiveBefore(_ context.Context, _ time.Time, status domain.BookingStatus) ([]string, error) {
	s.scanned = append(s.scanned, status)
	if err := s.scanErr[status]; err != nil {
		return nil, err
	}
	return s.byStatus[status], nil
}

type stubExpirer struct {
	mu      sync.Mutex
	calls   []string
	outcome map[string]bool
	fail    map[string]error
}

func (e *stubExpirer) Expire(_ context.Context, bookingID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, bookingID)
	if err := e.fail[bookingID]; err != nil {
		return false, err
	}
	return e.outcome[bookingID], nil
}

func TestSweepScansBothDeadlineKinds(t *testing.T) {
	source := &stubDeadlineSource{
		byStatus: map[domain.BookingStatus][]string{
			domain.StatusPending:          {"b-1"},
			domain.StatusVerifyAcceptance: {"b-2"},
		},
	}
	expirer := &stubExpirer{outcome: map[string]bool{"b-1": true, "b-2": true}}

	sweeper := NewSweeper(source, expirer, nil, SweeperConfig{})
	sweeper.Sweep(context.Background())

	assert.Equal(t, []domain.BookingStatus{domain.StatusPending, domain.StatusVerifyAcceptance}, source.scanned)
	assert.ElementsMatch(t, []string{"b-1", "b-2"}, expirer.calls)
}

func TestSweepIsolatesPerBookingFailures(t *testing.T) {
	source := &stubDeadlineSource{
		byStatus: map[domain.BookingStatus][]string{
			domain.StatusPending: {"b-1", "b-2", "b-3"},
		},
	}
	expirer := &stubExpirer{
		outcome: map[string]bool{"b-1": true, "b-3": true},
		fail:    map[string]error{"b-2": errors.New("store unavailable")},
	}

	sweeper := NewSweeper(source, expirer, nil, SweeperConfig{})
	sweeper.Sweep(context.Background())

	assert.Equal(t, []string{"b-1", "b-2", "b-3"}, expirer.calls)
}

func TestSweepContinuesAfterScanFailure(t *testing.T) {
	source := &stubDeadlineSource{
		byStatus: map[domain.BookingStatus][]string{
			domain.StatusVerifyAcceptance: {"b-9"},
		},
		scanErr: map[domain.BookingStatus]error{
			domain.StatusPending: errors.New("index offline"),
		},
	}
	expirer := &stubExpirer{outcome: map[string]bool{"b-9": true}}

	sweeper := NewSweeper(source, expirer, nil, SweeperConfig{})
	sweeper.Sweep(context.Background())

	assert.Equal(t, []string{"b-9"}, expirer.calls)
}

func TestSweepTreatsMovedOnBookingsAsSkips(t *testing.T) {
	source := &stubDeadlineSource{
		byStatus: map[domain.BookingStatus][]string{
			domain.StatusPending: {"b-1"},
		},
	}
	expirer := &stubExpirer{outcome: map[string]bool{"b-1": false}}

	sweeper := NewSweeper(source, expirer, nil, SweeperConfig{})
	sweeper.Sweep(context.Background())

	assert.Equal(t, []string{"b-1"}, expirer.calls)
}
