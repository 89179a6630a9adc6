package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/empath/internal/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the session attached by requireSession.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(auth.Session)
	return sess, ok
}

// requireSession rejects requests without a live bearer token and attaches
// the resolved session to the request context.
func requireSession(sessions auth.SessionStore, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "missing bearer token"})
			return
		}

		sess, err := sessions.Get(r.Context(), token)
		if errors.Is(err, auth.ErrSessionNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "invalid or expired session"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if sess.Expired(time.Now()) {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "invalid or expired session"})
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
