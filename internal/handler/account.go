package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fennwick/empath/internal/auth"
	"github.com/fennwick/empath/internal/repository"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (api *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &UserError{Message: "malformed JSON body"})
		return
	}

	if len(req.Username) < minUsernameLength {
		writeError(w, &UserError{
			Message: fmt.Sprintf("username must be at least %d characters", minUsernameLength),
		})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, &UserError{
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := api.IDs.Next()
	if err != nil {
		writeError(w, err)
		return
	}

	user := repository.User{
		ID:           id,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := api.Users.Create(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{ID: id, Username: req.Username})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &UserError{Message: "malformed JSON body"})
		return
	}

	user, err := api.Users.GetByUsername(r.Context(), req.Username)
	if errors.Is(err, repository.ErrUserNotFound) {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "invalid username or password"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "invalid username or password"})
		return
	}

	token, err := api.Tokens.Next()
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	sess := auth.Session{
		Token:     token,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(api.SessionTTL),
	}
	if err := api.Sessions.Create(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Username: user.Username})
}

func (api *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: "missing session"})
		return
	}

	if err := api.Sessions.Delete(r.Context(), sess.Token); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
