package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

type fakeRepo struct {
	orders map[uuid.UUID]Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[uuid.UUID]Order{}}
}

func (f *fakeRepo) Create(ctx context.Context, o Order) (Order, error) {
	o.ID = uuid.New()
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeRepo) Replace(ctx context.Context, o Order) (Order, error) {
	existing, ok := f.orders[o.ID]
	if !ok || existing.Status != StatusPending {
		return Order{}, ErrNotFound
	}
	o.Status = existing.Status
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) List(ctx context.Context, flt Filter, limit, offset int) ([]Order, int64, error) {
	out := []Order{}
	for _, o := range f.orders {
		if flt.Status != "" && o.Status != flt.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.orders[id]; !ok {
		return ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeCatalog struct {
	products map[uuid.UUID]catalog.Product
	services map[uuid.UUID]catalog.Service
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetService(ctx context.Context, id uuid.UUID) (catalog.Service, error) {
	sv, ok := f.services[id]
	if !ok {
		return catalog.Service{}, catalog.ErrNotFound
	}
	return sv, nil
}

type fakeStock struct {
	levels map[uuid.UUID]int
}

func (f *fakeStock) ConsumeForOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (inventory.Movement, error) {
	if f.levels[productID] < qty {
		return inventory.Movement{}, common.NewAppError("INSUFFICIENT_STOCK", "not enough stock on hand", 409, nil)
	}
	f.levels[productID] -= qty
	return inventory.Movement{ProductID: productID, Delta: -qty}, nil
}

func (f *fakeStock) RestockFromOrder(ctx context.Context, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) (inventory.Movement, error) {
	f.levels[productID] += qty
	return inventory.Movement{ProductID: productID, Delta: qty}, nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	stock    *fakeStock
	customer uuid.UUID
	serum    uuid.UUID
	shampoo  uuid.UUID
	haircut  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		customer: uuid.New(),
		serum:    uuid.New(),
		shampoo:  uuid.New(),
		haircut:  uuid.New(),
	}
	cat := &fakeCatalog{
		products: map[uuid.UUID]catalog.Product{
			f.serum:   {ID: f.serum, Name: "Serum phuc hoi", Price: 150000},
			f.shampoo: {ID: f.shampoo, Name: "Dau goi thao duoc", Price: 80000},
		},
		services: map[uuid.UUID]catalog.Service{
			f.haircut: {ID: f.haircut, Name: "Cat toc nu", Price: 120000},
		},
	}
	f.stock = &fakeStock{levels: map[uuid.UUID]int{f.serum: 10, f.shampoo: 10}}
	f.svc = &Service{Store: f.repo, Catalog: cat, Stock: f.stock, Log: zerolog.Nop()}
	return f
}

func TestCreatePricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{
		CustomerID: f.customer,
		Items: []ItemInput{
			{Kind: pricing.KindProduct, RefID: f.serum, Qty: 2},
			{Kind: pricing.KindProduct, RefID: f.shampoo, Qty: 1},
		},
		DiscountMode:  pricing.DiscountPercent,
		DiscountValue: 10,
	}
	o, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	require.EqualValues(t, 380000, o.Subtotal)
	require.EqualValues(t, 38000, o.DiscountAmount)
	require.EqualValues(t, 342000, o.Total)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, 8, f.stock.levels[f.serum])
	require.Equal(t, 9, f.stock.levels[f.shampoo])
}

func TestCreateFixedDiscountCappedAtSubtotal(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{
		CustomerID: f.customer,
		Items: []ItemInput{
			{Kind: pricing.KindProduct, RefID: f.shampoo, Qty: 1},
		},
		DiscountMode:  pricing.DiscountFixed,
		DiscountValue: 500000,
	}
	o, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	require.EqualValues(t, 80000, o.DiscountAmount)
	require.EqualValues(t, 0, o.Total)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{CustomerID: f.customer}, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
}

func TestCreateServiceLinesSkipStock(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 1}},
	}
	o, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	require.EqualValues(t, 120000, o.Total)
	require.Equal(t, 10, f.stock.levels[f.serum], "service lines must not touch stock")
}

func TestCreateRollsBackOnStockShortage(t *testing.T) {
	f := newFixture(t)
	f.stock.levels[f.shampoo] = 0
	in := CreateInput{
		CustomerID: f.customer,
		Items: []ItemInput{
			{Kind: pricing.KindProduct, RefID: f.serum, Qty: 2},
			{Kind: pricing.KindProduct, RefID: f.shampoo, Qty: 1},
		},
	}
	_, err := f.svc.Create(context.Background(), in, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	require.Equal(t, 10, f.stock.levels[f.serum], "consumed lines must be restocked")
	require.Empty(t, f.repo.orders, "order must not survive a failed consumption")
}

func TestCancelRestocksProducts(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindProduct, RefID: f.serum, Qty: 3}},
	}
	o, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	require.Equal(t, 7, f.stock.levels[f.serum])

	cancelled, err := f.svc.SetStatus(context.Background(), o.ID, StatusCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, 10, f.stock.levels[f.serum])
}

func TestCancelledOrdersAreFinal(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 1}},
	}, nil)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusCancelled, nil)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusPending, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_CANCELLED", appErr.Code)
}

func TestCompletedCannotReturnToPending(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 1}},
	}, nil)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusCompleted, nil)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusPending, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_TRANSITION", appErr.Code)
}

func TestDeleteRequiresCancellation(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 1}},
	}, nil)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), o.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_NOT_CANCELLED", appErr.Code)

	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusCancelled, nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), o.ID))
}

func TestUpdateReconcilesStockDiff(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindProduct, RefID: f.serum, Qty: 4}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 6, f.stock.levels[f.serum])

	updated, err := f.svc.Update(context.Background(), o.ID, CreateInput{
		CustomerID: f.customer,
		Items: []ItemInput{
			{Kind: pricing.KindProduct, RefID: f.serum, Qty: 1},
			{Kind: pricing.KindProduct, RefID: f.shampoo, Qty: 2},
		},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 9, f.stock.levels[f.serum], "three units returned")
	require.Equal(t, 8, f.stock.levels[f.shampoo], "two units consumed")
	require.EqualValues(t, 150000+160000, updated.Subtotal)
}

func TestUpdateRejectsNonPending(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 1}},
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), o.ID, StatusCompleted, nil)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), o.ID, CreateInput{
		CustomerID: f.customer,
		Items:      []ItemInput{{Kind: pricing.KindService, RefID: f.haircut, Qty: 2}},
	}, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_NOT_EDITABLE", appErr.Code)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	summary, items, err := f.svc.Preview(context.Background(), CreateInput{
		CustomerID:    f.customer,
		Items:         []ItemInput{{Kind: pricing.KindProduct, RefID: f.serum, Qty: 2}},
		ShippingFee:   15000,
		DiscountMode:  pricing.DiscountNone,
		DiscountValue: 99,
	})
	require.NoError(t, err)
	require.EqualValues(t, 300000, summary.Subtotal)
	require.EqualValues(t, 0, summary.Discount, "none mode ignores the value")
	require.EqualValues(t, 315000, summary.Total)
	require.Len(t, items, 1)
	require.Empty(t, f.repo.orders)
	require.Equal(t, 10, f.stock.levels[f.serum])
}
