package order

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes order endpoints.
type Handler struct {
	Svc          *Service
	Validate     *validator.Validate
	DefaultLimit int
}

type statusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending completed cancelled"`
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

func orderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid order id", http.StatusBadRequest, err)
	}
	return id, nil
}

func staffFrom(r *http.Request) *uuid.UUID {
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

// Create handles POST /orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	o, err := h.Svc.Create(r.Context(), in, staffFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// Preview handles POST /orders/preview. It prices the payload without
// persisting anything, mirroring what the order form shows before submit.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	summary, items, err := h.Svc.Preview(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"summary": summary,
		"items":   items,
	}})
}

// List handles GET /orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	q := r.URL.Query()
	f := Filter{Status: Status(q.Get("status"))}
	if raw := q.Get("customerId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.CustomerID = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = &t
		}
	}
	items, total, err := h.Svc.List(r.Context(), f, limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// Get handles GET /orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Update handles PUT /orders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in CreateInput
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	o, err := h.Svc.Update(r.Context(), id, in, staffFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// SetStatus handles PATCH /orders/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req statusRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), id, req.Status, staffFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Delete handles DELETE /orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
