package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Repo is the slice of the store the service needs.
type Repo interface {
	Create(ctx context.Context, o Order) (Order, error)
	Replace(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogSource resolves unit prices. Prices always come from here, never
// from the request.
type CatalogSource interface {
	GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	GetService(ctx context.Context, id uuid.UUID) (catalog.Service, error)
}

// StockOps applies the inventory side effects of an order.
type StockOps interface {
	ConsumeForOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (inventory.Movement, error)
	RestockFromOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (inventory.Movement, error)
}

// Service prices and persists orders and drives their lifecycle.
type Service struct {
	Store   Repo
	Catalog CatalogSource
	Stock   StockOps
	Log     zerolog.Logger
}

func countOrder(err error) {
	if obs.OrdersCreatedTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.OrdersCreatedTotal.WithLabelValues(result).Inc()
}

// pricingCode maps pricing validation failures onto their API error codes.
func pricingCode(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return "INVALID_QUANTITY"
	case errors.Is(err, pricing.ErrInvalidPrice):
		return "INVALID_PRICE"
	case errors.Is(err, pricing.ErrInvalidDiscount):
		return "INVALID_DISCOUNT"
	case errors.Is(err, pricing.ErrInvalidShipping):
		return "INVALID_SHIPPING_FEE"
	default:
		return "VALIDATION"
	}
}

// priceItems resolves catalog prices for the requested lines and computes
// the order totals.
func (s *Service) priceItems(ctx context.Context, in CreateInput) ([]Item, pricing.Summary, error) {
	if len(in.Items) == 0 {
		return nil, pricing.Summary{}, common.NewValidation("VALIDATION", "order must contain at least one item")
	}
	mode := in.DiscountMode
	if mode == "" {
		mode = pricing.DiscountNone
	}
	discount := pricing.Discount{Mode: mode, Value: in.DiscountValue}
	if err := discount.Validate(); err != nil {
		return nil, pricing.Summary{}, common.NewValidation(pricingCode(err), err.Error())
	}
	if err := pricing.ValidateShipping(in.ShippingFee); err != nil {
		return nil, pricing.Summary{}, common.NewValidation(pricingCode(err), err.Error())
	}

	items := make([]Item, 0, len(in.Items))
	lines := make([]pricing.LineItem, 0, len(in.Items))
	for _, req := range in.Items {
		var title string
		var unitPrice pricing.Money
		switch req.Kind {
		case pricing.KindProduct:
			p, err := s.Catalog.GetProduct(ctx, req.RefID)
			if err != nil {
				return nil, pricing.Summary{}, catalog.AsAppError(err, "product")
			}
			title, unitPrice = p.Name, p.Price
		case pricing.KindService:
			sv, err := s.Catalog.GetService(ctx, req.RefID)
			if err != nil {
				return nil, pricing.Summary{}, catalog.AsAppError(err, "service")
			}
			title, unitPrice = sv.Name, sv.Price
		default:
			return nil, pricing.Summary{}, common.NewValidation("VALIDATION", fmt.Sprintf("unknown item kind %q", req.Kind))
		}
		line, err := pricing.NewLineItem(req.Kind, req.Qty, unitPrice)
		if err != nil {
			return nil, pricing.Summary{}, common.NewValidation(pricingCode(err), err.Error())
		}
		lines = append(lines, line)
		items = append(items, Item{
			Kind: req.Kind, RefID: req.RefID, Title: title,
			Qty: req.Qty, UnitPrice: unitPrice, LineTotal: line.Total(),
		})
	}
	return items, pricing.ComputeTotals(lines, discount, in.ShippingFee), nil
}

// Preview prices the request without persisting anything.
func (s *Service) Preview(ctx context.Context, in CreateInput) (pricing.Summary, []Item, error) {
	items, summary, err := s.priceItems(ctx, in)
	if err != nil {
		return pricing.Summary{}, nil, err
	}
	return summary, items, nil
}

// Create prices the order, persists it as pending and consumes product stock.
func (s *Service) Create(ctx context.Context, in CreateInput, staffID *uuid.UUID) (Order, error) {
	items, summary, err := s.priceItems(ctx, in)
	if err != nil {
		countOrder(err)
		return Order{}, err
	}
	mode := in.DiscountMode
	if mode == "" {
		mode = pricing.DiscountNone
	}
	created, err := s.Store.Create(ctx, Order{
		CustomerID:     in.CustomerID,
		StaffID:        staffID,
		Status:         StatusPending,
		DiscountMode:   mode,
		DiscountValue:  in.DiscountValue,
		Subtotal:       summary.Subtotal,
		DiscountAmount: summary.Discount,
		ShippingFee:    summary.Shipping,
		Total:          summary.Total,
		Notes:          in.Notes,
		Items:          items,
	})
	if err != nil {
		countOrder(err)
		return Order{}, err
	}

	if err := s.consumeStock(ctx, created, staffID); err != nil {
		// The order cannot stand without its stock, drop it again.
		if delErr := s.Store.Delete(ctx, created.ID); delErr != nil {
			s.Log.Error().Err(delErr).Str("order_id", created.ID.String()).Msg("rollback order delete failed")
		}
		countOrder(err)
		return Order{}, err
	}
	countOrder(nil)
	return created, nil
}

// consumeStock deducts every product line, undoing earlier lines when one fails.
func (s *Service) consumeStock(ctx context.Context, o Order, staffID *uuid.UUID) error {
	consumed := []Item{}
	for _, it := range o.Items {
		if it.Kind != pricing.KindProduct {
			continue
		}
		if _, err := s.Stock.ConsumeForOrder(ctx, it.RefID, it.Qty, o.ID, staffID); err != nil {
			for _, done := range consumed {
				if _, rbErr := s.Stock.RestockFromOrder(ctx, done.RefID, done.Qty, o.ID, staffID); rbErr != nil {
					s.Log.Error().Err(rbErr).Str("product_id", done.RefID.String()).Msg("stock rollback failed")
				}
			}
			return err
		}
		consumed = append(consumed, it)
	}
	return nil
}

func (s *Service) restockAll(ctx context.Context, o Order, staffID *uuid.UUID) {
	for _, it := range o.Items {
		if it.Kind != pricing.KindProduct {
			continue
		}
		if _, err := s.Stock.RestockFromOrder(ctx, it.RefID, it.Qty, o.ID, staffID); err != nil {
			s.Log.Error().Err(err).Str("product_id", it.RefID.String()).Msg("restock on cancel failed")
		}
	}
}

// Get loads an order with its lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, asAppError(err)
	}
	return o, nil
}

// List pages orders.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]Order, int64, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, common.NewValidation("VALIDATION", fmt.Sprintf("unknown order status %q", f.Status))
	}
	return s.Store.List(ctx, f, limit, offset)
}

// Update reprices a pending order and reconciles its stock consumption with
// the new lines.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput, staffID *uuid.UUID) (Order, error) {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, asAppError(err)
	}
	if existing.Status != StatusPending {
		return Order{}, common.NewAppError("ORDER_NOT_EDITABLE", "only pending orders can be edited", http.StatusConflict, nil)
	}
	items, summary, err := s.priceItems(ctx, in)
	if err != nil {
		return Order{}, err
	}

	if err := s.reconcileStock(ctx, existing, items, staffID); err != nil {
		return Order{}, err
	}

	mode := in.DiscountMode
	if mode == "" {
		mode = pricing.DiscountNone
	}
	updated, err := s.Store.Replace(ctx, Order{
		ID:             id,
		CustomerID:     in.CustomerID,
		DiscountMode:   mode,
		DiscountValue:  in.DiscountValue,
		Subtotal:       summary.Subtotal,
		DiscountAmount: summary.Discount,
		ShippingFee:    summary.Shipping,
		Total:          summary.Total,
		Notes:          in.Notes,
		Items:          items,
	})
	if err != nil {
		return Order{}, asAppError(err)
	}
	return updated, nil
}

// reconcileStock applies only the per-product difference between the old and
// new lines. Extra consumption runs first so an insufficient-stock failure
// leaves nothing to undo.
func (s *Service) reconcileStock(ctx context.Context, existing Order, next []Item, staffID *uuid.UUID) error {
	diff := map[uuid.UUID]int{}
	for _, it := range next {
		if it.Kind == pricing.KindProduct {
			diff[it.RefID] += it.Qty
		}
	}
	for _, it := range existing.Items {
		if it.Kind == pricing.KindProduct {
			diff[it.RefID] -= it.Qty
		}
	}

	consumed := map[uuid.UUID]int{}
	for productID, delta := range diff {
		if delta <= 0 {
			continue
		}
		if _, err := s.Stock.ConsumeForOrder(ctx, productID, delta, existing.ID, staffID); err != nil {
			for doneID, qty := range consumed {
				if _, rbErr := s.Stock.RestockFromOrder(ctx, doneID, qty, existing.ID, staffID); rbErr != nil {
					s.Log.Error().Err(rbErr).Str("product_id", doneID.String()).Msg("stock rollback failed")
				}
			}
			return err
		}
		consumed[productID] = delta
	}
	for productID, delta := range diff {
		if delta >= 0 {
			continue
		}
		if _, err := s.Stock.RestockFromOrder(ctx, productID, -delta, existing.ID, staffID); err != nil {
			s.Log.Error().Err(err).Str("product_id", productID.String()).Msg("restock on edit failed")
		}
	}
	return nil
}

// SetStatus drives the order lifecycle. Cancelling returns product stock.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status, staffID *uuid.UUID) (Order, error) {
	if !ValidStatus(status) {
		return Order{}, common.NewValidation("VALIDATION", fmt.Sprintf("unknown order status %q", status))
	}
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, asAppError(err)
	}
	if existing.Status == status {
		return existing, nil
	}
	if existing.Status == StatusCancelled {
		return Order{}, common.NewAppError("ORDER_CANCELLED", "cancelled orders are final", http.StatusConflict, nil)
	}
	if existing.Status == StatusCompleted && status == StatusPending {
		return Order{}, common.NewAppError("INVALID_TRANSITION", "completed orders cannot return to pending", http.StatusConflict, nil)
	}
	if err := s.Store.UpdateStatus(ctx, id, status); err != nil {
		return Order{}, asAppError(err)
	}
	if status == StatusCancelled {
		s.restockAll(ctx, existing, staffID)
	}
	return s.Get(ctx, id)
}

// Delete removes a cancelled order. Pending and completed orders must be
// cancelled first so their stock side effects are unwound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return asAppError(err)
	}
	if existing.Status != StatusCancelled {
		return common.NewAppError("ORDER_NOT_CANCELLED", "only cancelled orders can be deleted", http.StatusConflict, nil)
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return asAppError(err)
	}
	return nil
}

func asAppError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewNotFound("order not found")
	}
	return err
}
