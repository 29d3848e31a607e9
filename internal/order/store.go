package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals a lookup on a missing order.
var ErrNotFound = errors.New("order not found")

const orderCols = `o.id, o.customer_id, c.name, o.staff_id, o.status, o.discount_mode, o.discount_value,
	o.subtotal, o.discount_amount, o.shipping_fee, o.total, o.notes, o.created_at, o.updated_at`

// Store persists orders and their lines.
type Store struct {
	Pool *pgxpool.Pool
}

// Create inserts the order and its items in one transaction. The totals on
// o must already be computed.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, staff_id, status, discount_mode, discount_value,
			                     subtotal, discount_amount, shipping_fee, total, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id, created_at, updated_at`,
			o.CustomerID, o.StaffID, o.Status, o.DiscountMode, o.DiscountValue,
			o.Subtotal, o.DiscountAmount, o.ShippingFee, o.Total, o.Notes,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	if err != nil {
		return Order{}, err
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	return o, nil
}

// Replace rewrites a pending order's lines and totals in one transaction.
func (s *Store) Replace(ctx context.Context, o Order) (Order, error) {
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE orders SET customer_id = $2, discount_mode = $3, discount_value = $4,
			        subtotal = $5, discount_amount = $6, shipping_fee = $7, total = $8,
			        notes = $9, updated_at = now()
			 WHERE id = $1 AND status = 'pending'`,
			o.ID, o.CustomerID, o.DiscountMode, o.DiscountValue,
			o.Subtotal, o.DiscountAmount, o.ShippingFee, o.Total, o.Notes)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	if err != nil {
		return Order{}, err
	}
	return s.Get(ctx, o.ID)
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []Item) error {
	for i := range items {
		it := &items[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, kind, ref_id, title, qty, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			orderID, it.Kind, it.RefID, it.Title, it.Qty, it.UnitPrice, it.LineTotal,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		it.OrderID = orderID
	}
	return nil
}

// Get loads an order with its lines.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, order_id, kind, ref_id, title, qty, unit_price, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Kind, &it.RefID, &it.Title, &it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// List pages orders without their lines, newest first.
func (s *Store) List(ctx context.Context, f Filter, limit, offset int) ([]Order, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	add := func(clause string, v any) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, v)
		idx++
	}
	if f.Status != "" {
		add(` AND o.status = $%d`, f.Status)
	}
	if f.CustomerID != nil {
		add(` AND o.customer_id = $%d`, *f.CustomerID)
	}
	if f.From != nil {
		add(` AND o.created_at >= $%d`, *f.From)
	}
	if f.To != nil {
		add(` AND o.created_at < $%d`, *f.To)
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderCols + ` FROM orders o JOIN customers c ON c.id = o.customer_id` +
		where + fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

// UpdateStatus moves the order to a new lifecycle state.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an order; items cascade.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.StaffID, &o.Status,
		&o.DiscountMode, &o.DiscountValue, &o.Subtotal, &o.DiscountAmount,
		&o.ShippingFee, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
