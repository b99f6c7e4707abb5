package http

import (
	"log/slog"
	"net/http"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
)

// CategoryHandler serves categories to users and manages them for admins.
type CategoryHandler struct {
	service CategoryService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(svc CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{service: svc, logger: logger}
}

// CategoryRequest is the JSON request body for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=255"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func (req CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.Status(req.Status),
	}
}

// ListActive handles GET /api/user/categories
func (h *CategoryHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, nonNil(categories))
}

// List handles GET /api/admin/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, nonNil(categories))
}

// Create handles POST /api/admin/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), caller.Username, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, category)
}

// Update handles PUT /api/admin/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := h.service.Update(r.Context(), caller.Username, id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, category)
}

// Delete handles DELETE /api/admin/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller.Username, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "category deleted")
}
