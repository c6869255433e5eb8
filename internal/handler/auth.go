package handler

import (
	"log/slog"
	"net/http"

	"github.com/aquatrack/aquatrack/internal/handler/dto"
	"github.com/aquatrack/aquatrack/internal/middleware"
	"github.com/aquatrack/aquatrack/internal/service"
)

// AuthHandler serves registration and the session lifecycle.
type AuthHandler struct {
	store  *service.AuthStore
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store *service.AuthStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		logger: logger.With("component", "handler.auth"),
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.store.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	sess, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:    sess.Token,
		IssuedAt: sess.IssuedAt,
		User:     h.store.Snapshot().User,
	})
}

// Logout handles POST /api/v1/auth/logout. The session ends even if the
// persisted copy could not be removed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.logger.Error("logout_cleanup_failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session. The user is only included for
// the holder of the active token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	if state.IsAuthenticated {
		if _, err := h.store.VerifyToken(middleware.SessionToken(r)); err != nil {
			state.User = nil
		}
	}
	writeJSON(w, http.StatusOK, state)
}
