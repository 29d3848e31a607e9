package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/common"
)

var (
	// ErrProductNotFound signals the movement targeted a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock signals a sale would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Movement is a persisted stock change with its before/after snapshot.
type Movement struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"productId"`
	ProductName string     `json:"productName,omitempty"`
	Mode        AdjustMode `json:"mode"`
	Delta       int        `json:"delta"`
	StockBefore int        `json:"stockBefore"`
	StockAfter  int        `json:"stockAfter"`
	Reason      string     `json:"reason"`
	Notes       string     `json:"notes,omitempty"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

const movementCols = `sm.id, sm.product_id, p.name, sm.mode, sm.delta,
	sm.stock_before, sm.stock_after, sm.reason, sm.notes, sm.actor_id, sm.created_at`

// Store persists stock movements under a row lock on the owning product.
type Store struct {
	Pool *pgxpool.Pool
}

// Apply locks the product row, recomputes the level and records the movement
// in a single transaction. Sales fail rather than floor when on-hand stock is
// short; adjustments floor at zero.
func (s *Store) Apply(ctx context.Context, productID uuid.UUID, mode AdjustMode, delta int, reason, notes string, actorID *uuid.UUID) (Movement, error) {
	var m Movement
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		var current int
		err := tx.QueryRow(ctx,
			`SELECT current_stock FROM products WHERE id = $1 FOR UPDATE`, productID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		next := ProjectStock(mode, current, delta)
		if mode == ModeSale && next < 0 {
			return ErrInsufficientStock
		}

		if _, err := tx.Exec(ctx,
			`UPDATE products SET current_stock = $2, updated_at = now() WHERE id = $1`,
			productID, next,
		); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO stock_movements (product_id, mode, delta, stock_before, stock_after, reason, notes, actor_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			productID, mode, delta, current, next, reason, notes, actorID,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		m.ProductID = productID
		m.Mode = mode
		m.Delta = delta
		m.StockBefore = current
		m.StockAfter = next
		m.Reason = reason
		m.Notes = notes
		m.ActorID = actorID
		return nil
	})
	return m, err
}

// CurrentStock reads the on-hand level for a single product.
func (s *Store) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var current int
	err := s.Pool.QueryRow(ctx,
		`SELECT current_stock FROM products WHERE id = $1`, productID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return current, nil
}

// HistoryByProduct lists movements for one product, newest first.
func (s *Store) HistoryByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM stock_movements WHERE product_id = $1`, productID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+movementCols+`
		 FROM stock_movements sm JOIN products p ON p.id = sm.product_id
		 WHERE sm.product_id = $1
		 ORDER BY sm.created_at DESC LIMIT $2 OFFSET $3`,
		productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	items, err := scanMovements(rows)
	return items, total, err
}

// ListMovements lists movements across all products, newest first, optionally
// narrowed to a single mode.
func (s *Store) ListMovements(ctx context.Context, mode AdjustMode, limit, offset int) ([]Movement, int64, error) {
	where := ""
	args := []any{limit, offset}
	count := `SELECT count(*) FROM stock_movements sm`
	if mode != "" {
		where = ` WHERE sm.mode = $3`
		args = append(args, mode)
		count += ` WHERE sm.mode = $1`
	}
	var total int64
	countArgs := []any{}
	if mode != "" {
		countArgs = append(countArgs, mode)
	}
	if err := s.Pool.QueryRow(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+movementCols+`
		 FROM stock_movements sm JOIN products p ON p.id = sm.product_id`+where+`
		 ORDER BY sm.created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	items, err := scanMovements(rows)
	return items, total, err
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	items := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Mode, &m.Delta,
			&m.StockBefore, &m.StockAfter, &m.Reason, &m.Notes, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// AsAppError maps store sentinels onto API error envelopes.
func AsAppError(err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return common.NewNotFound("product not found")
	case errors.Is(err, ErrInsufficientStock):
		return common.NewAppError("INSUFFICIENT_STOCK", "not enough stock on hand", http.StatusConflict, err)
	default:
		return err
	}
}
