package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes authentication and user-management endpoints.
type Handler struct {
	Service      *Service
	Validate     *validator.Validate
	DefaultLimit int
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"max=30"`
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type userRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"max=30"`
	Password string   `json:"password" validate:"omitempty,min=8"`
	Roles    []string `json:"roles" validate:"dive,oneof=admin staff"`
	IsActive *bool    `json:"isActive"`
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

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		return uuid.Nil, unauthorized(nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, unauthorized(err)
	}
	return id, nil
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := currentUserID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	user, err := h.Service.Me(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// UpdateProfile handles PUT /auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := currentUserID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req profileRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), id, req.Name, req.Phone)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// ChangePassword handles PUT /auth/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := currentUserID(r)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req changePasswordRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	users, total, err := h.Service.ListUsers(r.Context(), limit, (page-1)*limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       users,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(total)},
	})
}

// GetUser handles GET /auth/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid user id", http.StatusBadRequest, err))
		return
	}
	user, err := h.Service.Me(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// CreateUser handles POST /auth/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	user, err := h.Service.CreateUser(r.Context(), req.Name, req.Email, req.Phone, req.Password, req.Roles)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

// SetUserPassword handles PUT /auth/users/{id}/password.
func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid user id", http.StatusBadRequest, err))
		return
	}
	var req setPasswordRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Service.SetPassword(r.Context(), id, req.Password); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateUser handles PUT /auth/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid user id", http.StatusBadRequest, err))
		return
	}
	var req userRequest
	if err := h.decode(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	user, err := h.Service.UpdateUser(r.Context(), id, req.Name, req.Email, req.Phone, req.Roles, isActive)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// DeactivateUser handles DELETE /auth/users/{id}. Accounts are disabled rather
// than deleted so movement and order history keeps its actor references.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, common.NewAppError("BAD_REQUEST", "invalid user id", http.StatusBadRequest, err))
		return
	}
	if err := h.Service.DeactivateUser(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
