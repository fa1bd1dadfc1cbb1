package domain

import "time"

// Stylist represents a service provider on the platform.
type Stylist struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (s *Stylist) IsActive() bool {
	return s != nil && s.Status == "active"
}

// Service is a bookable catalog entry offered by a stylist.
type Service struct {
	ID        string        `json:"id"`
	StylistID string        `json:"stylist_id"`
	Name      string        `json:"name"`
	Price     float64       `json:"price"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
