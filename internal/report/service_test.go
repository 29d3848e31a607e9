package report

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/catalog"
)

type stubQueries struct {
	revenueCalls   int
	dashboardCalls int
}

func (s *stubQueries) Revenue(ctx context.Context, from, to time.Time) (RevenueReport, error) {
	s.revenueCalls++
	return RevenueReport{Total: 500000, Orders: 4}, nil
}

func (s *stubQueries) TopSelling(ctx context.Context, from, to time.Time, limit int) ([]SellerRow, error) {
	return []SellerRow{}, nil
}

func (s *stubQueries) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRow, error) {
	return []CustomerRow{}, nil
}

func (s *stubQueries) Inventory(ctx context.Context) (InventoryReport, error) {
	return InventoryReport{Products: 12, LowStock: 2}, nil
}

func (s *stubQueries) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	s.dashboardCalls++
	return Dashboard{TodayOrders: 2}, nil
}

func newReportSvc(t *testing.T) (*Svc, *stubQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := &stubQueries{}
	return &Svc{Queries: q, Cache: catalog.NewCache(rdb, 10*time.Minute)}, q
}

func TestRevenueCachedPerWindow(t *testing.T) {
	svc, q := newReportSvc(t)
	ctx := context.Background()
	from := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	rep, err := svc.Revenue(ctx, from, to)
	require.NoError(t, err)
	require.EqualValues(t, 500000, rep.Total)

	_, err = svc.Revenue(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, 1, q.revenueCalls, "second identical window is served from cache")

	_, err = svc.Revenue(ctx, from.AddDate(0, 0, 1), to)
	require.NoError(t, err)
	require.Equal(t, 2, q.revenueCalls, "different window misses the cache")
}

func TestDashboardKeyedByDay(t *testing.T) {
	svc, q := newReportSvc(t)
	ctx := context.Background()
	day := time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return day }

	_, err := svc.DashboardSnapshot(ctx)
	require.NoError(t, err)
	_, err = svc.DashboardSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, q.dashboardCalls)

	svc.Now = func() time.Time { return day.AddDate(0, 0, 1) }
	_, err = svc.DashboardSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, q.dashboardCalls, "a new day gets a fresh snapshot")
}

func TestReportsSurviveMissingCache(t *testing.T) {
	q := &stubQueries{}
	svc := &Svc{Queries: q}

	_, err := svc.Revenue(context.Background(),
		time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, q.revenueCalls)
}
