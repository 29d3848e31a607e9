package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// ErrNotFound indicates the requested catalog row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store is the pgx-backed persistence layer for the catalog.
type Store struct {
	Pool *pgxpool.Pool
}

// CategoryInput captures payload for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=product service"`
	Description string `json:"description"`
}

// ServiceInput captures payload for creating or updating a salon service.
type ServiceInput struct {
	CategoryID      *uuid.UUID    `json:"category_id"`
	Name            string        `json:"name" validate:"required"`
	Price           pricing.Money `json:"price" validate:"gte=0"`
	DurationMinutes int           `json:"duration_minutes" validate:"gt=0"`
	Description     string        `json:"description"`
	IsActive        *bool         `json:"is_active"`
}

// ProductInput captures payload for creating or updating a product.
type ProductInput struct {
	CategoryID *uuid.UUID    `json:"category_id"`
	Name       string        `json:"name" validate:"required"`
	Price      pricing.Money `json:"price" validate:"gte=0"`
	CostPrice  pricing.Money `json:"cost_price" validate:"gte=0"`
	MinStock   int           `json:"min_stock" validate:"gte=0"`
	Unit       string        `json:"unit"`
	IsActive   *bool         `json:"is_active"`
}

const categoryColumns = "id, name, kind, description, created_at, updated_at"

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Kind, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCategories returns categories, optionally narrowed by kind.
func (s *Store) ListCategories(ctx context.Context, kind string) ([]Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = $1"
		args = append(args, kind)
	}
	query += " ORDER BY name"
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory loads one category by id.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := scanCategory(s.Pool.QueryRow(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	return scanCategory(s.Pool.QueryRow(ctx,
		"INSERT INTO categories (name, kind, description) VALUES ($1, $2, $3) RETURNING "+categoryColumns,
		in.Name, in.Kind, in.Description))
}

// UpdateCategory updates a category in place.
func (s *Store) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (Category, error) {
	c, err := scanCategory(s.Pool.QueryRow(ctx,
		"UPDATE categories SET name = $2, kind = $3, description = $4, updated_at = now() WHERE id = $1 RETURNING "+categoryColumns,
		id, in.Name, in.Kind, in.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

// DeleteCategory removes a category. Referencing rows keep a NULL category.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const serviceColumns = "id, category_id, name, price, duration_minutes, description, is_active, created_at, updated_at"

func scanService(row pgx.Row) (Service, error) {
	var sv Service
	err := row.Scan(&sv.ID, &sv.CategoryID, &sv.Name, &sv.Price, &sv.DurationMinutes, &sv.Description, &sv.IsActive, &sv.CreatedAt, &sv.UpdatedAt)
	return sv, err
}

// ListServices returns a page of services and the total count.
func (s *Store) ListServices(ctx context.Context, activeOnly bool, limit, offset int) ([]Service, int64, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active"
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM services"+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx,
		"SELECT "+serviceColumns+" FROM services"+where+" ORDER BY name LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Service
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sv)
	}
	return out, total, rows.Err()
}

// GetService loads one service by id.
func (s *Store) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	sv, err := scanService(s.Pool.QueryRow(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	return sv, err
}

// CreateService inserts a salon service.
func (s *Store) CreateService(ctx context.Context, in ServiceInput) (Service, error) {
	return scanService(s.Pool.QueryRow(ctx,
		`INSERT INTO services (category_id, name, price, duration_minutes, description, is_active)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, TRUE)) RETURNING `+serviceColumns,
		in.CategoryID, in.Name, in.Price, in.DurationMinutes, in.Description, in.IsActive))
}

// UpdateService updates a salon service.
func (s *Store) UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (Service, error) {
	sv, err := scanService(s.Pool.QueryRow(ctx,
		`UPDATE services SET category_id = $2, name = $3, price = $4, duration_minutes = $5,
		 description = $6, is_active = COALESCE($7, is_active), updated_at = now()
		 WHERE id = $1 RETURNING `+serviceColumns,
		id, in.CategoryID, in.Name, in.Price, in.DurationMinutes, in.Description, in.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	return sv, err
}

// DeleteService removes a salon service.
func (s *Store) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM services WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const productColumns = "id, category_id, name, price, cost_price, current_stock, min_stock, unit, is_active, created_at, updated_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price, &p.CostPrice, &p.CurrentStock, &p.MinStock, &p.Unit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns a filtered page of products and the total count.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]Product, int64, error) {
	var clauses []string
	var args []any
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if f.LowStock {
		clauses = append(clauses, "current_stock <= min_stock")
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := s.Pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM products%s ORDER BY name LIMIT $%d OFFSET $%d", productColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProduct loads one product by id.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(s.Pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// CreateProduct inserts a product with zero opening stock; stock arrives
// through inventory movements, never through the product form.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	return scanProduct(s.Pool.QueryRow(ctx,
		`INSERT INTO products (category_id, name, price, cost_price, min_stock, unit, is_active)
		 VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'pcs'), COALESCE($7, TRUE)) RETURNING `+productColumns,
		in.CategoryID, in.Name, in.Price, in.CostPrice, in.MinStock, in.Unit, in.IsActive))
}

// UpdateProduct updates product master data. CurrentStock is deliberately not
// updatable here.
func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (Product, error) {
	p, err := scanProduct(s.Pool.QueryRow(ctx,
		`UPDATE products SET category_id = $2, name = $3, price = $4, cost_price = $5,
		 min_stock = $6, unit = COALESCE(NULLIF($7, ''), unit), is_active = COALESCE($8, is_active), updated_at = now()
		 WHERE id = $1 RETURNING `+productColumns,
		id, in.CategoryID, in.Name, in.Price, in.CostPrice, in.MinStock, in.Unit, in.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// DeleteProduct removes a product and its movement history.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AsAppError converts store errors into API error payloads.
func AsAppError(err error, resource string) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewNotFound(resource + " not found")
	}
	return err
}
