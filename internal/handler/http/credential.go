package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
)

// CredentialHandler handles the caller's stored credentials.
type CredentialHandler struct {
	service CredentialService
	logger  *slog.Logger
}

// NewCredentialHandler creates a new credential HTTP handler.
func NewCredentialHandler(svc CredentialService, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateCredentialRequest is the JSON request body for storing a credential.
type CreateCredentialRequest struct {
	CategoryID  string `json:"categoryId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Username    string `json:"username" validate:"required,max=200"`
	Password    string `json:"password" validate:"required,max=500"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateCredentialRequest is the JSON request body for updating a credential.
// An empty password keeps the stored one.
type UpdateCredentialRequest struct {
	CategoryID  string `json:"categoryId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Username    string `json:"username" validate:"required,max=200"`
	Password    string `json:"password" validate:"max=500"`
	Description string `json:"description" validate:"max=1000"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// ToggleFeaturedRequest is the JSON request body for toggle-featured.
type ToggleFeaturedRequest struct {
	IsFeatured *bool `json:"isFeatured" validate:"required"`
}

// --- Response types ---

// RevealResponse carries a decrypted secret.
type RevealResponse struct {
	Password string `json:"password"`
}

// --- Handlers ---

// Create handles POST /api/user/passwords
func (h *CredentialHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req CreateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cred, err := h.service.Create(r.Context(), caller, service.CreateCredentialInput{
		CategoryID:  uuid.MustParse(req.CategoryID),
		Title:       req.Title,
		Username:    req.Username,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, cred)
}

// List handles GET /api/user/passwords
func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	creds, err := h.service.List(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, nonNil(creds))
}

// ListByCategory handles GET /api/user/passwords/by-category?category=
func (h *CredentialHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "category query parameter is required"},
		})
		return
	}

	creds, err := h.service.ListByCategory(r.Context(), caller, category)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, nonNil(creds))
}

// Update handles PUT /api/user/passwords/{id}
func (h *CredentialHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cred, err := h.service.Update(r.Context(), caller, id, service.UpdateCredentialInput{
		CategoryID:  uuid.MustParse(req.CategoryID),
		Title:       req.Title,
		Username:    req.Username,
		Password:    req.Password,
		Description: req.Description,
		Status:      domain.Status(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, cred)
}

// Delete handles DELETE /api/user/passwords/{id}
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "password deleted")
}

// ToggleFeatured handles PUT /api/user/passwords/{id}/toggle-featured
func (h *CredentialHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ToggleFeaturedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cred, err := h.service.ToggleFeatured(r.Context(), caller, id, *req.IsFeatured)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, cred)
}

// Featured handles GET /api/user/featured-passwords
func (h *CredentialHandler) Featured(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	creds, err := h.service.Featured(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, nonNil(creds))
}

// MostViewed handles GET /api/user/most-viewed-passwords
func (h *CredentialHandler) MostViewed(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	creds, err := h.service.MostViewed(r.Context(), caller, service.MostViewedLimit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, nonNil(creds))
}

// Reveal handles GET /api/auth/user/password/{id}
func (h *CredentialHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	plaintext, err := h.service.Reveal(r.Context(), caller, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, RevealResponse{Password: plaintext})
}

// ViewTrend handles GET /api/auth/user/view-trend
func (h *CredentialHandler) ViewTrend(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	trend, err := h.service.ViewTrend(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, trend)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
