package controllers

import (
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
)

// callerID returns the authenticated user id or writes 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return id, true
}

// matchesCaller rejects a body userId naming someone other than the caller with 403.
// An empty body userId is accepted.
func matchesCaller(w http.ResponseWriter, bodyUserID, caller string) bool {
	if bodyUserID != "" && bodyUserID != caller {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "userId does not match the authenticated user")
		return false
	}
	return true
}
