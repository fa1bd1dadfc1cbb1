package repository

import (
	"context"

	"github.com/stylebook/backend/domain"
)

// CatalogRepository resolves stylists and their bookable services.
type CatalogRepository interface {
	GetStylist(ctx context.Context, id string) (*domain.Stylist, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
}
