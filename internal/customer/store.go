// Package customer manages the salon's client records: contact details,
// birthdays for campaign lookups, and the visit history assembled from
// orders and appointments.
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// ErrNotFound signals a lookup on a missing customer.
var ErrNotFound = errors.New("customer not found")

// Customer is a salon client.
type Customer struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Address   string     `json:"address"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Input carries customer fields for create and update.
type Input struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Phone    string     `json:"phone" validate:"max=30"`
	Email    string     `json:"email" validate:"omitempty,email"`
	Birthday *time.Time `json:"birthday"`
	Address  string     `json:"address" validate:"max=300"`
	Notes    string     `json:"notes" validate:"max=1000"`
}

// Visit is one entry in a customer's history, sourced from either a
// completed order or a past appointment.
type Visit struct {
	Kind       string        `json:"kind"`
	RefID      uuid.UUID     `json:"refId"`
	Label      string        `json:"label"`
	Total      pricing.Money `json:"total,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

const customerCols = `id, name, phone, email, birthday, address, notes, created_at, updated_at`

// Store persists customers.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List pages customers, optionally matching name or phone.
func (s *Store) List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error) {
	where := ""
	countArgs := []any{}
	args := []any{limit, offset}
	if search != "" {
		where = ` WHERE name ILIKE $3 OR phone LIKE $3`
		pattern := "%" + search + "%"
		args = append(args, pattern)
		countArgs = append(countArgs, pattern)
	}
	count := `SELECT count(*) FROM customers`
	if search != "" {
		count += ` WHERE name ILIKE $1 OR phone LIKE $1`
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+customerCols+` FROM customers`+where+` ORDER BY name LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows, total)
}

// ListByBirthdayMonth returns customers whose birthday falls in the given
// month, ordered by day of month for campaign scheduling.
func (s *Store) ListByBirthdayMonth(ctx context.Context, month int) ([]Customer, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+customerCols+` FROM customers
		 WHERE birthday IS NOT NULL AND EXTRACT(MONTH FROM birthday) = $1
		 ORDER BY EXTRACT(DAY FROM birthday), name`, month)
	if err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	defer rows.Close()
	items, _, err := scanCustomers(rows, 0)
	return items, err
}

func (s *Store) Create(ctx context.Context, in Input) (Customer, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO customers (name, phone, email, birthday, address, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+customerCols,
		in.Name, in.Phone, in.Email, in.Birthday, in.Address, in.Notes)
	c, err := scanCustomer(row)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, in Input) (Customer, error) {
	row := s.Pool.QueryRow(ctx,
		`UPDATE customers
		 SET name = $2, phone = $3, email = $4, birthday = $5, address = $6, notes = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+customerCols,
		id, in.Name, in.Phone, in.Email, in.Birthday, in.Address, in.Notes)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// History merges completed orders and non-cancelled appointments into a
// single reverse-chronological visit trail.
func (s *Store) History(ctx context.Context, id uuid.UUID, limit int) ([]Visit, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT 'order' AS kind, o.id, 'Order' AS label, o.total, o.created_at
		 FROM orders o WHERE o.customer_id = $1 AND o.status <> 'cancelled'
		 UNION ALL
		 SELECT 'appointment', a.id, sv.name, 0::BIGINT, a.starts_at
		 FROM appointments a JOIN services sv ON sv.id = a.service_id
		 WHERE a.customer_id = $1 AND a.status <> 'cancelled'
		 ORDER BY 5 DESC
		 LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("customer history: %w", err)
	}
	defer rows.Close()
	visits := []Visit{}
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.Kind, &v.RefID, &v.Label, &v.Total, &v.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Birthday,
		&c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCustomers(rows pgx.Rows, total int64) ([]Customer, int64, error) {
	items := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// AsAppError maps store sentinels onto API error envelopes.
func AsAppError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewNotFound("customer not found")
	}
	return err
}
