package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinichub/authcore"
)

// ProblemDetail is an RFC7807 problem-details body.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondProblem sends an RFC7807 problem-details response.
func respondProblem(w http.ResponseWriter, status int, title, detail string) {
	respondJSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// respondError maps engine errors onto HTTP statuses. The mapping is fixed:
// handlers never pick statuses themselves.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authcore.ErrDuplicateEmail):
		respondProblem(w, http.StatusConflict, "Conflict", "email already registered")
	case errors.Is(err, authcore.ErrInvalidInput):
		respondProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, authcore.ErrLoginRateLimited):
		w.Header().Set("Retry-After", "60")
		respondProblem(w, http.StatusTooManyRequests, "Too Many Requests", "too many login attempts")
	case errors.Is(err, authcore.ErrInvalidCredentials):
		respondProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, authcore.ErrInvalidRefreshToken):
		respondProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid refresh token")
	case errors.Is(err, authcore.ErrMissingToken), errors.Is(err, authcore.ErrInvalidToken),
		errors.Is(err, authcore.ErrUnauthenticated):
		respondProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
	case errors.Is(err, authcore.ErrAlreadyLoggedOut):
		respondProblem(w, http.StatusConflict, "Conflict", "session already terminated")
	case errors.Is(err, authcore.ErrForbidden):
		respondProblem(w, http.StatusForbidden, "Forbidden", "insufficient role")
	case errors.Is(err, authcore.ErrLedgerUnavailable), errors.Is(err, authcore.ErrStoreUnavailable):
		respondProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	default:
		respondProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// decodeJSON decodes the request body into target, rejecting unknown fields.
func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
