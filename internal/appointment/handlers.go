package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Repo is the slice of the store the handlers need.
type Repo interface {
	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
	List(ctx context.Context, status Status, customerID *uuid.UUID, limit, offset int) ([]Appointment, int64, error)
	Create(ctx context.Context, in Input, duration int) (Appointment, error)
	Update(ctx context.Context, id uuid.UUID, in Input, duration int) (Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ServiceDuration(ctx context.Context, serviceID uuid.UUID) (int, error)
}

// Handler exposes appointment endpoints.
type Handler struct {
	Store        Repo
	Validate     *validator.Validate
	DefaultLimit int
	// Location anchors calendar day boundaries; defaults to UTC.
	Location *time.Location
}

type statusRequest struct {
	Status Status `json:"status" validate:"required,oneof=scheduled confirmed completed cancelled no_show"`
}

func (h *Handler) loc() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
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

func apptID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid appointment id", http.StatusBadRequest, err)
	}
	return id, nil
}

// resolveDuration falls back to the booked service's default length when the
// request leaves the duration at zero.
func (h *Handler) resolveDuration(ctx context.Context, in Input) (int, error) {
	if in.DurationMinutes > 0 {
		return in.DurationMinutes, nil
	}
	return h.Store.ServiceDuration(ctx, in.ServiceID)
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	q := r.URL.Query()
	status := Status(q.Get("status"))
	if status != "" && !ValidStatus(status) {
		common.RenderError(w, common.NewValidation("VALIDATION", "unknown appointment status"))
		return
	}
	var customerID *uuid.UUID
	if raw := q.Get("customerId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			customerID = &id
		}
	}
	items, total, err := h.Store.List(r.Context(), status, customerID, limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// Calendar handles GET /appointments/calendar?view=week&date=2026-08-31.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := View(q.Get("view"))
	if view == "" {
		view = ViewWeek
	}
	anchor := time.Now().In(h.loc())
	if raw := q.Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.loc())
		if err != nil {
			common.RenderError(w, common.NewValidation("VALIDATION", "date must be YYYY-MM-DD"))
			return
		}
		anchor = parsed
	}
	from, to, err := RangeFor(view, anchor)
	if err != nil {
		common.RenderError(w, common.NewValidation("VALIDATION", err.Error()))
		return
	}
	appts, err := h.Store.ListBetween(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	buckets, err := BuildCalendar(view, anchor, appts)
	if err != nil {
		common.RenderError(w, common.NewValidation("VALIDATION", err.Error()))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"view":    view,
		"from":    from.Format(time.DateOnly),
		"to":      to.AddDate(0, 0, -1).Format(time.DateOnly),
		"buckets": buckets,
	}})
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := apptID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	a, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	duration, err := h.resolveDuration(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	a, err := h.Store.Create(r.Context(), in, duration)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": a})
}

// Update handles PUT /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := apptID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in Input
	if err := h.decode(r, &in); err != nil {
		common.RenderError(w, err)
		return
	}
	duration, err := h.resolveDuration(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	a, err := h.Store.Update(r.Context(), id, in, duration)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// SetStatus handles PATCH /appointments/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := apptID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req statusRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	a, err := h.Store.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		common.RenderError(w, AsAppError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// Delete handles DELETE /appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := apptID(r)
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
