package customer

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

const historyLimit = 50

// Repo is the slice of the store the handlers need.
type Repo interface {
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error)
	ListByBirthdayMonth(ctx context.Context, month int) ([]Customer, error)
	Create(ctx context.Context, in Input) (Customer, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID, limit int) ([]Visit, error)
}

// Handler exposes customer endpoints.
type Handler struct {
	Store        Repo
	Validate     *validator.Validate
	DefaultLimit int
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.NewAppError("BAD_REQUEST", "invalid request body", http.StatusBadRequest, err)
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			return common.NewValidation("VALIDATION", err.Error())
		}
	}
	return nil
}

func customerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid customer id", http.StatusBadRequest, err)
	}
	return id, nil
}

// List handles GET /customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	items, total, err := h.Store.List(r.Context(), r.URL.Query().Get("search"), limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// Get handles GET /customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Create handles POST /customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.Store.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// Update handles PUT /customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.Store.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Delete handles DELETE /customers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /customers/{id}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	visits, err := h.Store.History(r.Context(), id, historyLimit)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": visits})
}

// Birthdays handles GET /customers/birthdays/{month}. Month is 1 to 12.
func (h *Handler) Birthdays(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		common.RenderError(w, common.NewValidation("VALIDATION", "month must be between 1 and 12"))
		return
	}
	items, err := h.Store.ListByBirthdayMonth(r.Context(), month)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}
