package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
)

type AuthHandler struct {
	authService service.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/signup", h.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/auth/signin", h.SignIn).Methods(http.MethodPost)
	router.HandleFunc("/auth/signout", h.SignOut).Methods(http.MethodPost)
	router.HandleFunc("/auth/password-reset/request", h.RequestPasswordReset).Methods(http.MethodPost)
	router.HandleFunc("/auth/password-reset/confirm", h.ConfirmPasswordReset).Methods(http.MethodPost)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	account, err := h.authService.SignUp(r.Context(), &req)
	if err != nil {
		switch {
		case errors.IsValidationError(err):
			u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
		case errors.IsAlreadyExists(err):
			u.WriteError(w, http.StatusConflict, "account already exists", "an account with this email already exists")
		default:
			h.logger.Error("internal server error during signup", "error", err.Error())
			u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		}
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.NewAccountResponse(account))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	session, account, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.IsUnauthorized(err) {
			u.WriteError(w, http.StatusUnauthorized, "invalid credentials", "email or password is incorrect")
			return
		}
		h.logger.Error("internal server error during signin", "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	u.WriteJSON(w, http.StatusOK, models.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Account:   models.NewAccountResponse(account),
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "missing bearer token", "")
		return
	}

	if err := h.authService.SignOut(r.Context(), token); err != nil {
		h.logger.Error("internal server error during signout", "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	u.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("internal server error during password reset request", "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	// Same response whether or not the email exists.
	u.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reset email sent if the account exists"})
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.IsValidationError(err):
			u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
		case err == errors.ErrResetTokenInvalid:
			u.WriteError(w, http.StatusBadRequest, "invalid reset token", "the reset token is invalid or has expired")
		default:
			h.logger.Error("internal server error during password reset", "error", err.Error())
			u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		}
		return
	}

	u.WriteJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
