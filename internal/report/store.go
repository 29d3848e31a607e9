// Package report aggregates revenue, sales, and inventory figures for the
// admin dashboard. Results are cached in Redis because every view is a
// straight aggregate over committed rows.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/pricing"
)

// RevenuePoint is one day of revenue.
type RevenuePoint struct {
	Date    string        `json:"date"`
	Revenue pricing.Money `json:"revenue"`
	Orders  int           `json:"orders"`
}

// RevenueReport summarises completed orders over a window.
type RevenueReport struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Total   pricing.Money  `json:"total"`
	Orders  int            `json:"orders"`
	ByDay   []RevenuePoint `json:"byDay"`
	Average pricing.Money  `json:"averageOrderValue"`
}

// SellerRow is one line of the top-selling report.
type SellerRow struct {
	RefID   uuid.UUID     `json:"refId"`
	Kind    string        `json:"kind"`
	Title   string        `json:"title"`
	Qty     int           `json:"qty"`
	Revenue pricing.Money `json:"revenue"`
}

// CustomerRow is one line of the top-customers report.
type CustomerRow struct {
	CustomerID uuid.UUID     `json:"customerId"`
	Name       string        `json:"name"`
	Orders     int           `json:"orders"`
	Spent      pricing.Money `json:"spent"`
}

// InventoryReport summarises the product shelf.
type InventoryReport struct {
	Products   int           `json:"products"`
	LowStock   int           `json:"lowStock"`
	OutOfStock int           `json:"outOfStock"`
	StockValue pricing.Money `json:"stockValue"`
}

// Dashboard is the landing-page snapshot.
type Dashboard struct {
	TodayRevenue      pricing.Money `json:"todayRevenue"`
	TodayOrders       int           `json:"todayOrders"`
	TodayAppointments int           `json:"todayAppointments"`
	PendingReminders  int           `json:"pendingReminders"`
	LowStockProducts  int           `json:"lowStockProducts"`
}

// Queries runs the report aggregates against Postgres.
type Queries interface {
	Revenue(ctx context.Context, from, to time.Time) (RevenueReport, error)
	TopSelling(ctx context.Context, from, to time.Time, limit int) ([]SellerRow, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRow, error)
	Inventory(ctx context.Context) (InventoryReport, error)
	Dashboard(ctx context.Context, now time.Time) (Dashboard, error)
}

// Store implements Queries on a pgx pool.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) Revenue(ctx context.Context, from, to time.Time) (RevenueReport, error) {
	rep := RevenueReport{
		From:  from.Format(time.DateOnly),
		To:    to.AddDate(0, 0, -1).Format(time.DateOnly),
		ByDay: []RevenuePoint{},
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT to_char(created_at::date, 'YYYY-MM-DD'), coalesce(sum(total), 0), count(*)
		 FROM orders
		 WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		 GROUP BY created_at::date ORDER BY 1`, from, to)
	if err != nil {
		return RevenueReport{}, fmt.Errorf("revenue report: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Orders); err != nil {
			return RevenueReport{}, fmt.Errorf("scan revenue point: %w", err)
		}
		rep.ByDay = append(rep.ByDay, p)
		rep.Total += p.Revenue
		rep.Orders += p.Orders
	}
	if err := rows.Err(); err != nil {
		return RevenueReport{}, err
	}
	if rep.Orders > 0 {
		rep.Average = rep.Total / int64(rep.Orders)
	}
	return rep, nil
}

func (s *Store) TopSelling(ctx context.Context, from, to time.Time, limit int) ([]SellerRow, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT oi.ref_id, oi.kind, oi.title, sum(oi.qty), sum(oi.line_total)
		 FROM order_items oi JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = 'completed' AND o.created_at >= $1 AND o.created_at < $2
		 GROUP BY oi.ref_id, oi.kind, oi.title
		 ORDER BY sum(oi.qty) DESC
		 LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling report: %w", err)
	}
	defer rows.Close()
	out := []SellerRow{}
	for rows.Next() {
		var r SellerRow
		if err := rows.Scan(&r.RefID, &r.Kind, &r.Title, &r.Qty, &r.Revenue); err != nil {
			return nil, fmt.Errorf("scan seller row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRow, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT o.customer_id, c.name, count(*), sum(o.total)
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 WHERE o.status = 'completed' AND o.created_at >= $1 AND o.created_at < $2
		 GROUP BY o.customer_id, c.name
		 ORDER BY sum(o.total) DESC
		 LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top customers report: %w", err)
	}
	defer rows.Close()
	out := []CustomerRow{}
	for rows.Next() {
		var r CustomerRow
		if err := rows.Scan(&r.CustomerID, &r.Name, &r.Orders, &r.Spent); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Inventory(ctx context.Context) (InventoryReport, error) {
	var rep InventoryReport
	err := s.Pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE current_stock <= min_stock AND current_stock > 0),
		        count(*) FILTER (WHERE current_stock = 0),
		        coalesce(sum(price * current_stock), 0)
		 FROM products WHERE is_active`).
		Scan(&rep.Products, &rep.LowStock, &rep.OutOfStock, &rep.StockValue)
	if err != nil {
		return InventoryReport{}, fmt.Errorf("inventory report: %w", err)
	}
	return rep, nil
}

func (s *Store) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := day.AddDate(0, 0, 1)
	var d Dashboard
	err := s.Pool.QueryRow(ctx,
		`SELECT
		   (SELECT coalesce(sum(total), 0) FROM orders WHERE status = 'completed' AND created_at >= $1 AND created_at < $2),
		   (SELECT count(*) FROM orders WHERE created_at >= $1 AND created_at < $2),
		   (SELECT count(*) FROM appointments WHERE starts_at >= $1 AND starts_at < $2 AND status <> 'cancelled'),
		   (SELECT count(*) FROM reminders WHERE status IN ('pending', 'sent') AND due_date <= $2),
		   (SELECT count(*) FROM products WHERE is_active AND current_stock <= min_stock)`,
		day, next).
		Scan(&d.TodayRevenue, &d.TodayOrders, &d.TodayAppointments, &d.PendingReminders, &d.LowStockProducts)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard report: %w", err)
	}
	return d, nil
}
