package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventsImporter/internal/transport/httpServer/handlers/dto"
	"eventsImporter/internal/utils"
	"eventsImporter/internal/utils/logger/sl"
)

var ErrBadCredentials = errors.New("invalid username or password")

type AuthHandler struct {
	log      *slog.Logger
	issuer   TokenIssuer
	user     string
	password string
	ttl      time.Duration
}

func NewAuthHandler(log *slog.Logger, issuer TokenIssuer, user, password string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{
		log:      log,
		issuer:   issuer,
		user:     user,
		password: password,
		ttl:      ttl,
	}
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.AuthHandler.Login()"
	log := h.log.With(slog.String("op", op))

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	if err := dto.Validate(req); err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) == 1
	if !userOK || !passOK {
		respondError(log, ErrBadCredentials, w, http.StatusUnauthorized)
		return
	}

	token, err := h.issuer.Issue(req.Username)
	if err != nil {
		respondError(log, err, w, http.StatusInternalServerError)
		return
	}

	log.Info("admin logged in", slog.String("user", req.Username))

	if err := utils.Json(w, http.StatusOK, dto.TokenResponse{
		Token:     token,
		ExpiresIn: int64(h.ttl.Seconds()),
	}); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}
