package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Querier is the store surface the catalog service depends on.
type Querier interface {
	ListCategories(ctx context.Context, kind string) ([]Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListServices(ctx context.Context, activeOnly bool, limit, offset int) ([]Service, int64, error)
	GetService(ctx context.Context, id uuid.UUID) (Service, error)
	CreateService(ctx context.Context, in ServiceInput) (Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]Product, int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// Svc layers read-through caching over the catalog store.
type Svc struct {
	Store        Querier
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ClampLimit bounds a requested page size to the configured maximum.
func (s *Svc) ClampLimit(limit int) int {
	if limit <= 0 {
		if s.DefaultLimit > 0 {
			return s.DefaultLimit
		}
		return 20
	}
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		return s.MaxLimit
	}
	return limit
}

type serviceListPage struct {
	Items []Service `json:"items"`
	Total int64     `json:"total"`
}

type productListPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
}

// Categories returns categories through the cache.
func (s *Svc) Categories(ctx context.Context, kind string) ([]Category, error) {
	key := "cat:categories:" + kind
	var cached []Category
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	out, err := s.Store.ListCategories(ctx, kind)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// Services returns a page of salon services through the cache.
func (s *Svc) Services(ctx context.Context, activeOnly bool, page, limit int) ([]Service, int64, error) {
	limit = s.ClampLimit(limit)
	offset := (page - 1) * limit
	key := fmt.Sprintf("cat:services:%t:%d:%d", activeOnly, page, limit)
	var cached serviceListPage
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached.Items, cached.Total, nil
	}
	items, total, err := s.Store.ListServices(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	_ = s.Cache.SetJSON(ctx, key, serviceListPage{Items: items, Total: total})
	return items, total, nil
}

// Products returns a filtered page of products through the cache.
func (s *Svc) Products(ctx context.Context, f ProductFilter, page, limit int) ([]Product, int64, error) {
	limit = s.ClampLimit(limit)
	offset := (page - 1) * limit
	category := ""
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	key := fmt.Sprintf("cat:products:%t:%t:%s:%d:%d", f.ActiveOnly, f.LowStock, category, page, limit)
	var cached productListPage
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached.Items, cached.Total, nil
	}
	items, total, err := s.Store.ListProducts(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	_ = s.Cache.SetJSON(ctx, key, productListPage{Items: items, Total: total})
	return items, total, nil
}

// Invalidate drops all cached catalog listings. Called after every write,
// including stock movements which change product rows.
func (s *Svc) Invalidate(ctx context.Context) {
	_ = s.Cache.InvalidatePrefix(ctx, "cat:")
}
