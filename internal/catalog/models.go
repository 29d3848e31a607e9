// Package catalog manages the salon's offerings: treatment services, retail
// products, and the categories grouping them. List reads are cached in Redis;
// every write invalidates the affected cache keys.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Category groups services or products.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service is a salon treatment offered at a fixed price and duration.
type Service struct {
	ID              uuid.UUID     `json:"id"`
	CategoryID      *uuid.UUID    `json:"category_id,omitempty"`
	Name            string        `json:"name"`
	Price           pricing.Money `json:"price"`
	DurationMinutes int           `json:"duration_minutes"`
	Description     string        `json:"description"`
	IsActive        bool          `json:"is_active"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Product is a retail item tracked in inventory.
type Product struct {
	ID           uuid.UUID     `json:"id"`
	CategoryID   *uuid.UUID    `json:"category_id,omitempty"`
	Name         string        `json:"name"`
	Price        pricing.Money `json:"price"`
	CostPrice    pricing.Money `json:"cost_price"`
	CurrentStock int           `json:"current_stock"`
	MinStock     int           `json:"min_stock"`
	Unit         string        `json:"unit"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// LowOnStock reports whether the product sits at or below its minimum level.
func (p Product) LowOnStock() bool {
	return p.CurrentStock <= p.MinStock
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	ActiveOnly bool
	LowStock   bool
	CategoryID *uuid.UUID
}
