package http

import (
	"log/slog"
	"net/http"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/pagination"
)

// AdminHandler handles user management and the admin dashboard.
type AdminHandler struct {
	users     UserService
	dashboard DashboardService
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(users UserService, dashboard DashboardService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, dashboard: dashboard, logger: logger}
}

// AdminUserRequest is the JSON request body for creating or updating a user.
// The service requires a password on create.
type AdminUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE FROZEN"`
}

func (req AdminUserRequest) input() service.AdminUserInput {
	return service.AdminUserInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Status:   domain.Status(req.Status),
	}
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	dash, err := h.dashboard.Build(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, dash)
}

// ListUsers handles GET /api/admin/users?page=&per_page=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.users.ListUsers(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req AdminUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), caller.Username, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req AdminUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.UpdateUser(r.Context(), caller.Username, id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), caller.Username, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "user deleted")
}
