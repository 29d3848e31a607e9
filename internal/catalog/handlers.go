package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	Svc      *Svc
	Validate *validator.Validate
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func parseID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid id", http.StatusBadRequest, err)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.NewAppError("BAD_REQUEST", "invalid request body", http.StatusBadRequest, err)
	}
	return nil
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Categories(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetCategory handles GET /categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.Svc.Store.GetCategory(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err, "category"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid category payload", err.Error())
		return
	}
	c, err := h.Svc.Store.CreateCategory(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// UpdateCategory handles PUT /categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in CategoryInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid category payload", err.Error())
		return
	}
	c, err := h.Svc.Store.UpdateCategory(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, AsAppError(err, "category"))
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// DeleteCategory handles DELETE /categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Svc.Store.DeleteCategory(r.Context(), id); err != nil {
		common.RenderError(w, AsAppError(err, "category"))
		return
	}
	h.Svc.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ListServices handles GET /services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.Svc.DefaultLimit)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("isActive"))
	items, total, err := h.Svc.Services(r.Context(), activeOnly, page, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: h.Svc.ClampLimit(limit), TotalItems: int(total)},
	})
}

// GetService handles GET /services/{id}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	sv, err := h.Svc.Store.GetService(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err, "service"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sv})
}

// CreateService handles POST /services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in ServiceInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid service payload", err.Error())
		return
	}
	sv, err := h.Svc.Store.CreateService(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": sv})
}

// UpdateService handles PUT /services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in ServiceInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid service payload", err.Error())
		return
	}
	sv, err := h.Svc.Store.UpdateService(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, AsAppError(err, "service"))
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": sv})
}

// DeleteService handles DELETE /services/{id}.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Svc.Store.DeleteService(r.Context(), id); err != nil {
		common.RenderError(w, AsAppError(err, "service"))
		return
	}
	h.Svc.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.Svc.DefaultLimit)
	q := r.URL.Query()
	filter := ProductFilter{}
	filter.ActiveOnly, _ = strconv.ParseBool(q.Get("isActive"))
	filter.LowStock, _ = strconv.ParseBool(q.Get("lowStock"))
	if raw := q.Get("category"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CategoryID = &id
		}
	}
	items, total, err := h.Svc.Products(r.Context(), filter, page, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: h.Svc.ClampLimit(limit), TotalItems: int(total)},
	})
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	p, err := h.Svc.Store.GetProduct(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err, "product"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid product payload", err.Error())
		return
	}
	p, err := h.Svc.Store.CreateProduct(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// UpdateProduct handles PUT /products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in ProductInput
	if err := decodeBody(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid product payload", err.Error())
		return
	}
	p, err := h.Svc.Store.UpdateProduct(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, AsAppError(err, "product"))
		return
	}
	h.Svc.Invalidate(r.Context())
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// DeleteProduct handles DELETE /products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Svc.Store.DeleteProduct(r.Context(), id); err != nil {
		common.RenderError(w, AsAppError(err, "product"))
		return
	}
	h.Svc.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
