package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pitchside/apiserver/internal/auth"
	"github.com/pitchside/apiserver/internal/services"
)

// FavoriteHandler serves the caller's favorite team.
type FavoriteHandler struct {
	favoriteService *services.FavoriteService
	logger          *slog.Logger
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(favoriteService *services.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, logger: logger}
}

// FavoriteRouter registers favorite routes behind authMiddleware.
func FavoriteRouter(
	r chi.Router,
	favoriteService *services.FavoriteService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewFavoriteHandler(favoriteService, logger)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.GetFavorite)
	r.Post("/", handler.SetFavorite)
	r.Delete("/", handler.DeleteFavorite)
}

// GetFavorite returns the caller's favorite, or {} when none is set.
func (h *FavoriteHandler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	fav, found, err := h.favoriteService.Get(r.Context(), identity.UserID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get favorite failed", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// SetFavorite creates or replaces the caller's favorite team.
func (h *FavoriteHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req FavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fav, err := h.favoriteService.Set(r.Context(), identity.UserID, req.Team)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, "Team is required")
			return
		}
		h.logger.ErrorContext(r.Context(), "set favorite failed", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// DeleteFavorite removes the caller's favorite. Removing a missing one succeeds.
func (h *FavoriteHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.favoriteService.Remove(r.Context(), identity.UserID); err != nil {
		h.logger.ErrorContext(r.Context(), "delete favorite failed", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Favorite removed"})
}

type FavoriteRequest struct {
	Team string `json:"team"`
}
