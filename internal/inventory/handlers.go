package inventory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes stock movement endpoints.
type Handler struct {
	Svc          *Svc
	Validate     *validator.Validate
	DefaultLimit int
	MaxLimit     int
}

type addStockRequest struct {
	Quantity int    `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=200"`
	Notes    string `json:"notes" validate:"max=500"`
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
	Notes  string `json:"notes" validate:"max=500"`
}

type previewRequest struct {
	Mode  AdjustMode `json:"mode" validate:"required"`
	Delta int        `json:"delta"`
}

func (h *Handler) clamp(limit int) int {
	if limit <= 0 {
		return h.DefaultLimit
	}
	if h.MaxLimit > 0 && limit > h.MaxLimit {
		return h.MaxLimit
	}
	return limit
}

func (h *Handler) productID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid product id", http.StatusBadRequest, err)
	}
	return id, nil
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

func actor(r *http.Request) *uuid.UUID {
	raw, ok := common.UserID(r.Context())
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// AddStock handles POST /products/{id}/stock/add.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req addStockRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	m, err := h.Svc.Add(r.Context(), id, req.Quantity, req.Reason, req.Notes, actor(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

// AdjustStock handles POST /products/{id}/stock/adjust.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req adjustStockRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	m, err := h.Svc.Adjust(r.Context(), id, req.Delta, req.Reason, req.Notes, actor(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": m})
}

// PreviewStock handles POST /products/{id}/stock/preview. Nothing is
// persisted; the response carries the projected level for confirmation UIs.
func (h *Handler) PreviewStock(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req previewRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	p, err := h.Svc.PreviewMovement(r.Context(), id, req.Mode, req.Delta)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// StockHistory handles GET /products/{id}/stock/history.
func (h *Handler) StockHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.productID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	limit = h.clamp(limit)
	items, total, err := h.Svc.History(r.Context(), id, limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// ListStockMovements handles GET /stock/movements.
func (h *Handler) ListStockMovements(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	limit = h.clamp(limit)
	mode := AdjustMode(r.URL.Query().Get("mode"))
	items, total, err := h.Svc.Movements(r.Context(), mode, limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}
