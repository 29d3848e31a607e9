// Package order turns a cart of salon products and services into a priced,
// persisted order. Unit prices are always resolved server side; the client
// never supplies an amount that feeds the total.
package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is one of the lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Item is a priced order line.
type Item struct {
	ID        uuid.UUID        `json:"id"`
	OrderID   uuid.UUID        `json:"orderId"`
	Kind      pricing.ItemKind `json:"kind"`
	RefID     uuid.UUID        `json:"refId"`
	Title     string           `json:"title"`
	Qty       int              `json:"qty"`
	UnitPrice pricing.Money    `json:"unitPrice"`
	LineTotal pricing.Money    `json:"lineTotal"`
}

// Order is a persisted order with its denormalised totals.
type Order struct {
	ID             uuid.UUID            `json:"id"`
	CustomerID     uuid.UUID            `json:"customerId"`
	CustomerName   string               `json:"customerName,omitempty"`
	StaffID        *uuid.UUID           `json:"staffId,omitempty"`
	Status         Status               `json:"status"`
	DiscountMode   pricing.DiscountMode `json:"discountMode"`
	DiscountValue  pricing.Money        `json:"discountValue"`
	Subtotal       pricing.Money        `json:"subtotal"`
	DiscountAmount pricing.Money        `json:"discountAmount"`
	ShippingFee    pricing.Money        `json:"shippingFee"`
	Total          pricing.Money        `json:"total"`
	Notes          string               `json:"notes"`
	Items          []Item               `json:"items,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// ItemInput is one requested line before pricing.
type ItemInput struct {
	Kind  pricing.ItemKind `json:"kind" validate:"required,oneof=product service"`
	RefID uuid.UUID        `json:"refId" validate:"required"`
	Qty   int              `json:"qty" validate:"required,min=1"`
}

// CreateInput is the request payload for a new order.
type CreateInput struct {
	CustomerID    uuid.UUID            `json:"customerId" validate:"required"`
	Items         []ItemInput          `json:"items" validate:"required,min=1,dive"`
	DiscountMode  pricing.DiscountMode `json:"discountMode" validate:"omitempty,oneof=none percentage fixed"`
	DiscountValue pricing.Money        `json:"discountValue"`
	ShippingFee   pricing.Money        `json:"shippingFee"`
	Notes         string               `json:"notes" validate:"max=1000"`
}

// Filter narrows order listings.
type Filter struct {
	Status     Status
	CustomerID *uuid.UUID
	From, To   *time.Time
}
