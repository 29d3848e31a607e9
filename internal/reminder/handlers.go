package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/order"
)

const defaultFollowUpDays = 14

// Repo is the slice of the store the handlers need.
type Repo interface {
	Get(ctx context.Context, id uuid.UUID) (Reminder, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Reminder, int64, error)
	DueBetween(ctx context.Context, from, to time.Time) ([]Reminder, error)
	Create(ctx context.Context, in Input) (Reminder, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (Reminder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderSource resolves orders for the from-order shortcut.
type OrderSource interface {
	Get(ctx context.Context, id uuid.UUID) (order.Order, error)
}

// Handler exposes reminder endpoints.
type Handler struct {
	Store        Repo
	Orders       OrderSource
	Validate     *validator.Validate
	DefaultLimit int
	// Now is swappable for tests.
	Now func() time.Time
}

type fromOrderRequest struct {
	Title     string `json:"title" validate:"max=200"`
	Message   string `json:"message" validate:"max=1000"`
	DaysAfter int    `json:"daysAfter" validate:"min=0,max=365"`
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
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

func reminderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid reminder id", http.StatusBadRequest, err)
	}
	return id, nil
}

// List handles GET /reminders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	status := Status(r.URL.Query().Get("status"))
	items, total, err := h.Store.List(r.Context(), status, limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// Today handles GET /reminders/today.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items, err := h.Store.DueBetween(r.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Week handles GET /reminders/week.
func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items, err := h.Store.DueBetween(r.Context(), day, day.AddDate(0, 0, 7))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get handles GET /reminders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rem, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rem})
}

// Create handles POST /reminders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	rem, err := h.Store.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rem})
}

// FromOrder handles POST /reminders/from-order/{orderId}. It books a
// follow-up for the order's customer, due a configurable number of days
// after today.
func (h *Handler) FromOrder(w http.ResponseWriter, r *http.Request) {
	orderUUID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid order id", http.StatusBadRequest, err))
		return
	}
	// The body is optional; an empty POST books the default follow-up.
	var req fromOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid request body", http.StatusBadRequest, err))
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.RenderError(w, common.NewValidation("VALIDATION", err.Error()))
			return
		}
	}
	o, err := h.Orders.Get(r.Context(), orderUUID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	days := req.DaysAfter
	if days == 0 {
		days = defaultFollowUpDays
	}
	title := req.Title
	if title == "" {
		title = "Follow up with " + o.CustomerName
	}
	rem, err := h.Store.Create(r.Context(), Input{
		CustomerID: o.CustomerID,
		OrderID:    &o.ID,
		Title:      title,
		Message:    req.Message,
		DueDate:    h.now().AddDate(0, 0, days),
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rem})
}

// Update handles PUT /reminders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	rem, err := h.Store.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rem})
}

// Complete handles POST /reminders/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, StatusCompleted)
}

// Skip handles POST /reminders/{id}/skip.
func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, StatusSkipped)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status Status) {
	id, err := reminderID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rem, err := h.Store.UpdateStatus(r.Context(), id, status)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rem})
}

// Delete handles DELETE /reminders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := reminderID(r)
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
