package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/obs"
)

// Mover is the slice of the store the service needs.
type Mover interface {
	Apply(ctx context.Context, productID uuid.UUID, mode AdjustMode, delta int, reason, notes string, actorID *uuid.UUID) (Movement, error)
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	HistoryByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, int64, error)
	ListMovements(ctx context.Context, mode AdjustMode, limit, offset int) ([]Movement, int64, error)
}

// Preview is the projected outcome of a movement that has not been applied.
type Preview struct {
	ProductID uuid.UUID  `json:"productId"`
	Mode      AdjustMode `json:"mode"`
	Current   int        `json:"currentStock"`
	Delta     int        `json:"delta"`
	Projected int        `json:"projectedStock"`
}

// Svc validates and applies stock movements.
type Svc struct {
	Store Mover
	// OnChange runs after a movement commits, letting the catalog layer
	// drop its cached product listings.
	OnChange func(ctx context.Context)
}

func (s *Svc) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx)
	}
}

func countMovement(mode AdjustMode, err error) {
	if obs.StockMovementsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.StockMovementsTotal.WithLabelValues(string(mode), result).Inc()
}

// Add applies incoming inventory. The quantity must be positive.
func (s *Svc) Add(ctx context.Context, productID uuid.UUID, qty int, reason, notes string, actorID *uuid.UUID) (Movement, error) {
	if err := ValidateDelta(ModeAdd, qty); err != nil {
		return Movement{}, common.NewValidation("INVALID_DELTA", err.Error())
	}
	m, err := s.Store.Apply(ctx, productID, ModeAdd, qty, reason, notes, actorID)
	countMovement(ModeAdd, err)
	if err != nil {
		return Movement{}, AsAppError(err)
	}
	s.changed(ctx)
	return m, nil
}

// Adjust applies a correction in either direction. The level floors at zero.
func (s *Svc) Adjust(ctx context.Context, productID uuid.UUID, delta int, reason, notes string, actorID *uuid.UUID) (Movement, error) {
	if err := ValidateDelta(ModeAdjust, delta); err != nil {
		return Movement{}, common.NewValidation("INVALID_DELTA", err.Error())
	}
	m, err := s.Store.Apply(ctx, productID, ModeAdjust, delta, reason, notes, actorID)
	countMovement(ModeAdjust, err)
	if err != nil {
		return Movement{}, AsAppError(err)
	}
	s.changed(ctx)
	return m, nil
}

// PreviewMovement projects the post-movement level without persisting anything.
func (s *Svc) PreviewMovement(ctx context.Context, productID uuid.UUID, mode AdjustMode, delta int) (Preview, error) {
	if mode != ModeAdd && mode != ModeAdjust {
		return Preview{}, common.NewValidation("VALIDATION", fmt.Sprintf("unknown movement mode %q", mode))
	}
	if err := ValidateDelta(mode, delta); err != nil {
		return Preview{}, common.NewValidation("INVALID_DELTA", err.Error())
	}
	current, err := s.Store.CurrentStock(ctx, productID)
	if err != nil {
		return Preview{}, AsAppError(err)
	}
	return Preview{
		ProductID: productID,
		Mode:      mode,
		Current:   current,
		Delta:     delta,
		Projected: ProjectStock(mode, current, delta),
	}, nil
}

// ConsumeForOrder deducts stock sold through an order. Fails with
// ErrInsufficientStock when on-hand stock cannot cover the quantity.
func (s *Svc) ConsumeForOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (Movement, error) {
	if qty <= 0 {
		return Movement{}, common.NewValidation("VALIDATION", "sale quantity must be greater than zero")
	}
	reason := "order " + orderID.String()
	m, err := s.Store.Apply(ctx, productID, ModeSale, -qty, reason, "", actorID)
	countMovement(ModeSale, err)
	if err != nil {
		return Movement{}, AsAppError(err)
	}
	s.changed(ctx)
	return m, nil
}

// RestockFromOrder returns stock from a cancelled order to the shelf.
func (s *Svc) RestockFromOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (Movement, error) {
	if qty <= 0 {
		return Movement{}, common.NewValidation("VALIDATION", "restock quantity must be greater than zero")
	}
	reason := "cancel order " + orderID.String()
	m, err := s.Store.Apply(ctx, productID, ModeRestock, qty, reason, "", actorID)
	countMovement(ModeRestock, err)
	if err != nil {
		return Movement{}, AsAppError(err)
	}
	s.changed(ctx)
	return m, nil
}

// History lists the movement trail for one product.
func (s *Svc) History(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, int64, error) {
	items, total, err := s.Store.HistoryByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, 0, AsAppError(err)
	}
	return items, total, nil
}

// Movements lists movements across the whole catalog.
func (s *Svc) Movements(ctx context.Context, mode AdjustMode, limit, offset int) ([]Movement, int64, error) {
	if mode != "" && mode != ModeAdd && mode != ModeAdjust && mode != ModeSale && mode != ModeRestock {
		return nil, 0, common.NewValidation("VALIDATION", fmt.Sprintf("unknown movement mode %q", mode))
	}
	items, total, err := s.Store.ListMovements(ctx, mode, limit, offset)
	if err != nil {
		return nil, 0, AsAppError(err)
	}
	return items, total, nil
}
