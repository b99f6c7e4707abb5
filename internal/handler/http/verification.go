package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
)

// VerificationHandler sends and checks the codes that gate reveal and update.
type VerificationHandler struct {
	codes  VerificationService
	users  UserService
	logger *slog.Logger
}

// NewVerificationHandler creates a new verification code HTTP handler.
func NewVerificationHandler(codes VerificationService, users UserService, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{codes: codes, users: users, logger: logger}
}

// SendCodeRequest selects what the code will unlock. The body is optional.
type SendCodeRequest struct {
	Context string `json:"context"`
}

// VerifyCodeRequest is the JSON request body for verify-code.
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Send handles POST /api/auth/user/send-verification-code
func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req SendCodeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteValidationError(w, err)
		return
	}

	purpose, err := domain.ParsePurpose(req.Context)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	profile, err := h.users.Me(r.Context(), caller.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := h.codes.Issue(r.Context(), profile.User, purpose); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "verification code sent to your email address")
}

// Verify handles POST /api/auth/user/verify-code
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req VerifyCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.codes.ConsumeFor(r.Context(), req.Code, caller.ID, domain.PurposeView, domain.PurposeUpdate)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "verification successful")
}
