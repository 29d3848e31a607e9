package report

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/backend-salon/internal/catalog"
)

// Svc layers Redis caching over the report queries. Report windows change
// rarely within a TTL so a short cache absorbs dashboard refresh storms.
type Svc struct {
	Queries Queries
	Cache   *catalog.Cache
	// Now is swappable for tests.
	Now func() time.Time
}

func (s *Svc) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cached[T any](ctx context.Context, c *catalog.Cache, key string, load func() (T, error)) (T, error) {
	var out T
	if ok, err := c.GetJSON(ctx, key, &out); err == nil && ok {
		return out, nil
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	_ = c.SetJSON(ctx, key, out)
	return out, nil
}

// Revenue reports completed-order revenue for [from, to).
func (s *Svc) Revenue(ctx context.Context, from, to time.Time) (RevenueReport, error) {
	key := fmt.Sprintf("report:revenue:%s:%s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	return cached(ctx, s.Cache, key, func() (RevenueReport, error) {
		return s.Queries.Revenue(ctx, from, to)
	})
}

// TopSelling lists the best-selling products and services in the window.
func (s *Svc) TopSelling(ctx context.Context, from, to time.Time, limit int) ([]SellerRow, error) {
	key := fmt.Sprintf("report:topselling:%s:%s:%d", from.Format(time.DateOnly), to.Format(time.DateOnly), limit)
	return cached(ctx, s.Cache, key, func() ([]SellerRow, error) {
		return s.Queries.TopSelling(ctx, from, to, limit)
	})
}

// TopCustomers lists the highest spenders in the window.
func (s *Svc) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRow, error) {
	key := fmt.Sprintf("report:topcustomers:%s:%s:%d", from.Format(time.DateOnly), to.Format(time.DateOnly), limit)
	return cached(ctx, s.Cache, key, func() ([]CustomerRow, error) {
		return s.Queries.TopCustomers(ctx, from, to, limit)
	})
}

// Inventory summarises the product shelf.
func (s *Svc) Inventory(ctx context.Context) (InventoryReport, error) {
	return cached(ctx, s.Cache, "report:inventory", func() (InventoryReport, error) {
		return s.Queries.Inventory(ctx)
	})
}

// DashboardSnapshot assembles the landing-page numbers for today.
func (s *Svc) DashboardSnapshot(ctx context.Context) (Dashboard, error) {
	now := s.now()
	key := "report:dashboard:" + now.Format(time.DateOnly)
	return cached(ctx, s.Cache, key, func() (Dashboard, error) {
		return s.Queries.Dashboard(ctx, now)
	})
}
