package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
)

type fakeMover struct {
	stock   map[uuid.UUID]int
	applied []Movement
}

func newFakeMover() *fakeMover {
	return &fakeMover{stock: map[uuid.UUID]int{}}
}

func (f *fakeMover) Apply(ctx context.Context, productID uuid.UUID, mode AdjustMode, delta int, reason, notes string, actorID *uuid.UUID) (Movement, error) {
	current, ok := f.stock[productID]
	if !ok {
		return Movement{}, ErrProductNotFound
	}
	next := ProjectStock(mode, current, delta)
	if mode == ModeSale && next < 0 {
		return Movement{}, ErrInsufficientStock
	}
	f.stock[productID] = next
	m := Movement{
		ID: uuid.New(), ProductID: productID, Mode: mode, Delta: delta,
		StockBefore: current, StockAfter: next, Reason: reason, Notes: notes, ActorID: actorID,
	}
	f.applied = append(f.applied, m)
	return m, nil
}

func (f *fakeMover) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	current, ok := f.stock[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return current, nil
}

func (f *fakeMover) HistoryByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, int64, error) {
	return f.applied, int64(len(f.applied)), nil
}

func (f *fakeMover) ListMovements(ctx context.Context, mode AdjustMode, limit, offset int) ([]Movement, int64, error) {
	return f.applied, int64(len(f.applied)), nil
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 20

	for _, qty := range []int{0, -5} {
		_, err := svc.Add(context.Background(), id, qty, "restock", "", nil)
		require.Error(t, err)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "quantity must be greater than zero", appErr.Message)
	}
	require.Empty(t, mover.applied, "rejected movements must not persist")
	require.Equal(t, 20, mover.stock[id])
}

func TestAddAppliesPositiveQuantity(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 20

	m, err := svc.Add(context.Background(), id, 5, "weekly restock", "", nil)
	require.NoError(t, err)
	require.Equal(t, 20, m.StockBefore)
	require.Equal(t, 25, m.StockAfter)
	require.Equal(t, 25, mover.stock[id])
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 20

	_, err := svc.Adjust(context.Background(), id, 0, "recount", "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "quantity must not be zero", appErr.Message)
}

func TestAdjustFloorsAtZero(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 5

	m, err := svc.Adjust(context.Background(), id, -20, "damage writeoff", "", nil)
	require.NoError(t, err)
	require.Equal(t, 0, m.StockAfter)
	require.Equal(t, 0, mover.stock[id])
}

func TestPreviewDoesNotPersist(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 12

	p, err := svc.PreviewMovement(context.Background(), id, ModeAdjust, -30)
	require.NoError(t, err)
	require.Equal(t, 12, p.Current)
	require.Equal(t, 0, p.Projected)
	require.Empty(t, mover.applied)
	require.Equal(t, 12, mover.stock[id])
}

func TestPreviewValidatesFirst(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}

	_, err := svc.PreviewMovement(context.Background(), uuid.New(), ModeAdd, 0)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "quantity must be greater than zero", appErr.Message)

	_, err = svc.PreviewMovement(context.Background(), uuid.New(), "transfer", 3)
	require.ErrorAs(t, err, &appErr)
}

func TestConsumeForOrderFailsOnShortStock(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	mover.stock[id] = 2

	_, err := svc.ConsumeForOrder(context.Background(), id, 3, uuid.New(), nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	require.Equal(t, 2, mover.stock[id], "failed sale must not change stock")
}

func TestCancelRestocksSoldQuantity(t *testing.T) {
	mover := newFakeMover()
	svc := &Svc{Store: mover}
	id := uuid.New()
	orderID := uuid.New()
	mover.stock[id] = 10

	_, err := svc.ConsumeForOrder(context.Background(), id, 4, orderID, nil)
	require.NoError(t, err)
	require.Equal(t, 6, mover.stock[id])

	_, err = svc.RestockFromOrder(context.Background(), id, 4, orderID, nil)
	require.NoError(t, err)
	require.Equal(t, 10, mover.stock[id])
}

func TestOnChangeFiresAfterMovement(t *testing.T) {
	mover := newFakeMover()
	fired := 0
	svc := &Svc{Store: mover, OnChange: func(context.Context) { fired++ }}
	id := uuid.New()
	mover.stock[id] = 1

	_, err := svc.Add(context.Background(), id, 1, "restock", "", nil)
	require.NoError(t, err)
	require.Equal(t, 1, fired)

	_, err = svc.Add(context.Background(), id, 0, "restock", "", nil)
	require.Error(t, err)
	require.Equal(t, 1, fired, "rejected movement must not invalidate caches")
}

func TestMovementsRejectsUnknownMode(t *testing.T) {
	svc := &Svc{Store: newFakeMover()}
	_, _, err := svc.Movements(context.Background(), "teleport", 20, 0)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)

	_, _, err = svc.Movements(context.Background(), "", 20, 0)
	require.NoError(t, err)
}
