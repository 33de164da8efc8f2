package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	rserrors "roomsync/errors"
	"roomsync/services"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// AuthHandler exposes register and login over plain HTTP. The returned
// token authenticates the websocket handshake.
type AuthHandler struct {
	log  *slog.Logger
	auth services.IAuthService
}

func NewAuthHandler(log *slog.Logger, auth services.IAuthService) *AuthHandler {
	return &AuthHandler{log: log, auth: auth}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	token, err := h.auth.Register(body.Email, body.Name, body.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.writeToken(w, token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	token, err := h.auth.Login(body.Email, body.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.writeToken(w, token)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, token services.Token) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tokenBody{Token: token.String()}); err != nil {
		h.log.Error("token response failed", "error", err)
	}
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rserrors.ErrUserAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, rserrors.ErrInvalidCredentials), errors.Is(err, rserrors.ErrUserNotFound):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, rserrors.ErrInvalidPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("auth request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
