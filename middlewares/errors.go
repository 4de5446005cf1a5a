package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrNotAuthenticated is reported when an enforcement middleware runs
	// without a principal in the request context.
	ErrNotAuthenticated = errors.New("middlewares: user not authenticated")

	// ErrGateUnavailable is reported when Authorize has no gate, neither
	// configured nor bound to the request context.
	ErrGateUnavailable = errors.New("middlewares: gate unavailable")
)

// ForbiddenError is returned when an authenticated principal fails an
// ability, role, or permission check. Message is safe to show to clients.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ErrorHandler renders an authorization failure to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type errorResponse struct {
	Error string `json:"error"`
}

// defaultErrorHandler writes a JSON body with a status derived from the
// error: 401 for missing authentication, 403 for denials, 500 otherwise.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		status = http.StatusUnauthorized
		message = "User not authenticated"
	case errors.Is(err, ErrGateUnavailable):
		message = "Gate service not available"
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
		message = forbidden.Message
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
