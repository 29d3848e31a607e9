package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-salon/internal/common"
)

const defaultTopLimit = 10

// Handler exposes report endpoints.
type Handler struct {
	Svc *Svc
}

// window parses from/to query params, defaulting to the last 30 days. The
// returned range is half-open: [from, to+1day).
func (h *Handler) window(r *http.Request) (time.Time, time.Time, error) {
	now := h.Svc.now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -30)
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, common.NewValidation("VALIDATION", "from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, common.NewValidation("VALIDATION", "to must be YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, common.NewValidation("VALIDATION", "from must be before to")
	}
	return from, to, nil
}

func topLimit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		return n
	}
	return defaultTopLimit
}

// Revenue handles GET /reports/revenue.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rep, err := h.Svc.Revenue(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rep})
}

// TopSelling handles GET /reports/top-selling.
func (h *Handler) TopSelling(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rows, err := h.Svc.TopSelling(r.Context(), from, to, topLimit(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopCustomers handles GET /reports/top-customers.
func (h *Handler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rows, err := h.Svc.TopCustomers(r.Context(), from, to, topLimit(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Inventory handles GET /reports/inventory.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Svc.Inventory(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rep})
}

// Dashboard handles GET /reports/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Svc.DashboardSnapshot(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}
