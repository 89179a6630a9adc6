package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fennwick/empath/internal/audio"
	"github.com/fennwick/empath/internal/repository"
)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError maps an error onto an HTTP status. Typed errors keep their
// message; anything unexpected becomes a generic 500 so internals never
// leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var userErr *UserError
	var takenErr *repository.UsernameTakenError
	var decodeErr *audio.DecodeError

	switch {
	case errors.As(err, &userErr):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: userErr.Message})
	case errors.As(err, &takenErr):
		writeJSON(w, http.StatusConflict, errorEnvelope{Error: takenErr.Error()})
	case errors.Is(err, repository.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorEnvelope{Error: "user not found"})
	case errors.As(err, &decodeErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Error: decodeErr.Error()})
	default:
		slog.Error("request failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: "internal server error"})
	}
}
