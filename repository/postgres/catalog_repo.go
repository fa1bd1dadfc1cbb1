package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/repository"
)

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a Postgres-backed implementation of CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) repository.CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) GetStylist(ctx context.Context, id string) (*domain.Stylist, error) {
	const query = `
	SELECT id, display_name, status, metadata, created_at, updated_at
	FROM stylists
	WHERE id = $1
	`
	var stylist domain.Stylist
	var metadata []byte

	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&stylist.ID,
		&stylist.DisplayName,
		&stylist.Status,
		&metadata,
		&stylist.CreatedAt,
		&stylist.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStylistNotFound
		}
		return nil, err
	}

	stylist.Metadata = unmarshalMap(metadata)
	return &stylist, nil
}

func (r *catalogRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	const query = `
	SELECT id, stylist_id, name, price, duration_minutes, created_at, updated_at
	FROM services
	WHERE id = $1
	`
	var service domain.Service
	var durationMinutes int

	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.StylistID,
		&service.Name,
		&service.Price,
		&durationMinutes,
		&service.CreatedAt,
		&service.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}

	service.Duration = time.Duration(durationMinutes) * time.Minute
	return &service, nil
}
