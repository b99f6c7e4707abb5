package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 64 << 10

// UserHandler handles the caller's own account.
type UserHandler struct {
	users     UserService
	lifecycle LifecycleService
	logger    *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users UserService, lifecycle LifecycleService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, lifecycle: lifecycle, logger: logger}
}

// UpdateProfileRequest is the JSON request body for PUT /api/user/update.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
}

// Me handles GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.users.Me(r.Context(), caller.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, profile)
}

// Update handles PUT /api/user/update
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), caller.ID, service.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, profile)
}

// Freeze handles POST /api/user/freeze-account
func (h *UserHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Freeze(r.Context(), caller.ID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "your account has been frozen; log in within 30 days to reactivate it, after that it will be deleted")
}

// UploadPicture handles POST /api/user/upload-profile-picture. The image is
// read from the multipart field "file".
func (h *UserHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxProfilePictureSize+multipartOverhead)
	if err := r.ParseMultipartForm(service.MaxProfilePictureSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, apperrors.InvalidInput("profile picture must be at most 2MB"), h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidInput("expected a multipart form with a file field"), h.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("file is required"), h.logger)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	profile, err := h.users.UploadProfilePicture(r.Context(), caller.ID, service.PictureUpload{
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, profile)
}
