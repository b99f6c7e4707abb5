package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httputil"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/validator"
)

const maxBodyBytes = 1 << 20 // 1MB

// decodeBody limits, decodes and validates a JSON body into dst. On failure
// the 400 response is already written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// callerFrom returns the authenticated principal. Routes are mounted behind
// RequireAuth, so a miss is answered like an anonymous request.
func callerFrom(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
		return nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return httputil.ParseUUID(w, chi.URLParam(r, "id"))
}
