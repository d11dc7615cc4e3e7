package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pitchside/apiserver/internal/auth"
	"github.com/pitchside/apiserver/internal/services"
	"github.com/pitchside/apiserver/types"
)

// AuthHandler provides registration, login and password reset endpoints.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenService
	logger      *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, tokens *auth.TokenService, logger *slog.Logger) {
	handler := NewAuthHandler(userService, tokens, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/reset-password", handler.ResetPassword)
	r.With(RequireAuth(tokens)).Get("/me", handler.Me)
}

// Register creates a new user account and returns a token.
// A taken username or email is answered with 400.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Username, email and password are required")
		case errors.Is(err, services.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "Password must be at least "+strconv.Itoa(services.MinPasswordLength)+" characters")
		case errors.Is(err, services.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, "Password is too long")
		case errors.Is(err, services.ErrUserExists):
			writeError(w, http.StatusBadRequest, "User already exists")
		default:
			h.logger.ErrorContext(r.Context(), "register failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login verifies credentials and returns a token. Unknown users and wrong
// passwords get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// ResetPassword sets a new password for the account with the given email.
//
// The caller only has to know the email address; there is no emailed
// confirmation token. Anyone who knows a user's email can take over the
// account, so this endpoint must not be exposed beyond trusted clients
// until a possession check exists.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.userService.ResetPassword(r.Context(), req.Email, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "Password must be at least "+strconv.Itoa(services.MinPasswordLength)+" characters")
		case errors.Is(err, services.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, "Password is too long")
		default:
			h.logger.ErrorContext(r.Context(), "reset password failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.logger.ErrorContext(r.Context(), "load user failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user types.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "issue token failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, status, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	// Identifier is either the username or the email address.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}
