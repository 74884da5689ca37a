package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"camioBack/internal/models"
)

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not. It also supports the
// standard net/http PathValue API available in recent Go versions.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}

	if val := r.URL.Query().Get(name); val != "" {
		return val
	}

	return r.PathValue(name)
}

func getIntParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(getParam(r, name))
}

// contextUserID reads the authenticated user id set by the JWT middleware.
func contextUserID(r *http.Request) int {
	id, _ := r.Context().Value("user_id").(int)
	return id
}

func contextRole(r *http.Request) string {
	role, _ := r.Context().Value("role").(string)
	return role
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps the service error taxonomy onto HTTP statuses. Selection
// conflicts get their own code so clients can refresh the interest list
// instead of showing a generic failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed"})
	case errors.Is(err, models.ErrInvalidPricing):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pricing"})
	case errors.Is(err, models.ErrReceiptRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "receipt required"})
	case errors.Is(err, models.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, models.ErrNoRecord), errors.Is(err, models.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, models.ErrAlreadyAssigned):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "transporter already assigned", Code: "already_assigned"})
	case errors.Is(err, models.ErrAlreadyDeclined):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "request was declined", Code: "already_declined"})
	case errors.Is(err, models.ErrEmptyReturnUsed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "empty return already consumed"})
	case errors.Is(err, models.ErrPreconditionFailed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "state precondition failed"})
	case errors.Is(err, models.ErrDuplicatePhone):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "phone already registered"})
	case errors.Is(err, models.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
