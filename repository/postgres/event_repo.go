package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/repository"
)

const pgUniqueViolation = "23505"

type eventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a Postgres-backed EventStore implementation.
//
// booking_events is the append-only source of truth with a unique
// (booking_id, sequence) constraint; booking_deadlines is a small side index
// (one row per booking with an active deadline) maintained in the same
// transaction so the sweeper never replays logs to find stale bookings.
func NewEventStore(pool *pgxpool.Pool) repository.EventStore {
	return &eventStore{pool: pool}
}

func (s *eventStore) Append(ctx context.Context, expectedVersion int64, events ...domain.Event) (int64, error) {
	if len(events) == 0 {
		return expectedVersion, nil
	}
	for i := range events {
		if events[i].BookingID == "" || events[i].Type == "" {
			return 0, domain.ErrInvalidPayload
		}
		events[i].Sequence = expectedVersion + int64(i) + 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	const insert = `
	INSERT INTO booking_events (booking_id, sequence, type, actor_id, occurred_at, payload)
	SELECT $1, $2, $3, $4, $5, $6
	WHERE (SELECT COALESCE(MAX(sequence), 0) FROM booking_events WHERE booking_id = $1) = $2 - 1
	`

	for _, event := range events {
		tag, err := tx.Exec(ctx, insert,
			event.BookingID,
			event.Sequence,
			string(event.Type),
			event.ActorID,
			event.OccurredAt,
			[]byte(event.Payload),
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return 0, domain.ErrVersionConflict
			}
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, domain.ErrVersionConflict
		}

		if err := s.syncDeadline(ctx, tx, event); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, domain.ErrVersionConflict
		}
		return 0, err
	}
	return events[len(events)-1].Sequence, nil
}

type deadlineAction int

const (
	deadlineKeep deadlineAction = iota
	deadlineSet
	deadlineClear
)

// deadlineActionFor decides how an event affects the booking's row in the
// deadline index. PAYMENT_RECEIVED must keep the row: the booking stays in
// VERIFY_ACCEPTANCE until CONFIRMED lands, and a crash between the two events
// must leave the booking visible to the sweeper.
func deadlineActionFor(event domain.Event) (deadlineAction, domain.BookingStatus, time.Time, error) {
	switch event.Type {
	case domain.EventCreated:
		var payload domain.CreatedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return deadlineKeep, "", time.Time{}, domain.WrapError(domain.ErrCodeInternal, "decode CREATED payload", err)
		}
		return deadlineSet, domain.StatusPending, payload.RequestExpiresAt, nil

	case domain.EventAccepted:
		var payload domain.AcceptedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return deadlineKeep, "", time.Time{}, domain.WrapError(domain.ErrCodeInternal, "decode ACCEPTED payload", err)
		}
		if payload.AcceptanceExpiresAt == nil {
			// Auto-booked: no payment window, nothing left to sweep.
			return deadlineClear, "", time.Time{}, nil
		}
		return deadlineSet, domain.StatusVerifyAcceptance, *payload.AcceptanceExpiresAt, nil

	case domain.EventPaymentReceived:
		return deadlineKeep, "", time.Time{}, nil

	default:
		return deadlineClear, "", time.Time{}, nil
	}
}

// syncDeadline keeps the status+deadline index in step with the log. Only
// PENDING and VERIFY_ACCEPTANCE carry an active deadline; status-changing
// events outside those states clear the booking's row.
func (s *eventStore) syncDeadline(ctx context.Context, tx pgx.Tx, event domain.Event) error {
	action, status, deadline, err := deadlineActionFor(event)
	if err != nil {
		return err
	}

	switch action {
	case deadlineSet:
		const upsert = `
		INSERT INTO booking_deadlines (booking_id, status, deadline)
		VALUES ($1, $2, $3)
		ON CONFLICT (booking_id) DO UPDATE
		SET status = EXCLUDED.status, deadline = EXCLUDED.deadline
		`
		_, err := tx.Exec(ctx, upsert, event.BookingID, string(status), deadline)
		return err

	case deadlineClear:
		_, err := tx.Exec(ctx, `DELETE FROM booking_deadlines WHERE booking_id = $1`, event.BookingID)
		return err

	default:
		return nil
	}
}

func (s *eventStore) Load(ctx context.Context, bookingID string) ([]domain.Event, error) {
	const query = `
	SELECT booking_id, sequence, type, actor_id, occurred_at, payload
	FROM booking_events
	WHERE booking_id = $1
	ORDER BY sequence ASC
	`
	rows, err := s.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	return events, nil
}

func (s *eventStore) FindActiveBefore(ctx context.Context, cutoff time.Time, status domain.BookingStatus) ([]string, error) {
	const query = `
	SELECT booking_id
	FROM booking_deadlines
	WHERE status = $1 AND deadline <= $2
	ORDER BY deadline ASC
	`
	rows, err := s.pool.Query(ctx, query, string(status), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Event, error) {
	var event domain.Event
	var (
		eventType string
		payload   []byte
	)

	if err := row.Scan(
		&event.BookingID,
		&event.Sequence,
		&eventType,
		&event.ActorID,
		&event.OccurredAt,
		&payload,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	event.Type = domain.EventType(eventType)
	event.OccurredAt = event.OccurredAt.UTC()
	event.Payload = make([]byte, len(payload))
	copy(event.Payload, payload)

	return &event, nil
}
