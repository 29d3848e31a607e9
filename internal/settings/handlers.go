package settings

import (
	"context"
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Repo is the slice of the store the handlers need.
type Repo interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, in Input) (Settings, error)
	Reset(ctx context.Context) (Settings, error)
}

// Handler exposes the settings endpoints.
type Handler struct {
	Store    Repo
	Validate *validator.Validate
}

// Get handles GET /settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Get(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": s})
}

// Update handles PUT /settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid request body", http.StatusBadRequest, err))
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.RenderError(w, common.NewValidation("VALIDATION", err.Error()))
			return
		}
	}
	s, err := h.Store.Update(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": s})
}

// Reset handles POST /settings/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Reset(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": s})
}
