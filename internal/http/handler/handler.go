// Package handler holds the thin HTTP glue. Handlers decode, call a
// service and render; authorization decisions live in the services.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shiplane-dev/shiplane/internal/apperr"
	"github.com/shiplane-dev/shiplane/internal/http/middleware"
	"github.com/shiplane-dev/shiplane/internal/http/response"
)

// SessionTokenHeader carries the opaque session token on endpoints that
// need to know which device is calling.
const SessionTokenHeader = "X-Session-Token"

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body required")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

// principal fetches the authenticated caller, writing the error response
// itself when the auth context is missing.
func principal(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing auth context", nil)
		return nil, false
	}
	return p, true
}

func clientInfo(r *http.Request) (ua, ip string) {
	return r.UserAgent(), r.RemoteAddr
}
