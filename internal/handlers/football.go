package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pitchside/apiserver/internal/services"
)

// FootballHandler proxies football data from the upstream provider.
type FootballHandler struct {
	footballService *services.FootballService
	logger          *slog.Logger
}

// NewFootballHandler constructs a FootballHandler.
func NewFootballHandler(footballService *services.FootballService, logger *slog.Logger) *FootballHandler {
	return &FootballHandler{footballService: footballService, logger: logger}
}

// FootballRouter registers proxy routes behind authMiddleware.
func FootballRouter(
	r chi.Router,
	footballService *services.FootballService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewFootballHandler(footballService, logger)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/standings/{league}", handler.Standings)
	r.Get("/fixtures/weekly", handler.WeeklyFixtures)
	r.Get("/fixtures/past/{league}", handler.PastFixtures)
	r.Get("/fixtures/live", handler.LiveFixtures)
}

// Standings relays the league table for {league}.
func (h *FootballHandler) Standings(w http.ResponseWriter, r *http.Request) {
	league := chi.URLParam(r, "league")
	h.relay(w, r, "standings", "Invalid league key", "Failed to fetch standings",
		func(ctx context.Context) (json.RawMessage, error) {
			return h.footballService.Standings(ctx, league)
		})
}

// WeeklyFixtures relays fixtures in the configured weekly window.
func (h *FootballHandler) WeeklyFixtures(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "weekly fixtures", "", "Failed to fetch weekly fixtures", h.footballService.WeeklyFixtures)
}

// PastFixtures relays finished fixtures of {league} in the configured past window.
func (h *FootballHandler) PastFixtures(w http.ResponseWriter, r *http.Request) {
	league := chi.URLParam(r, "league")
	h.relay(w, r, "past fixtures", "Invalid league key for past fixtures", "Failed to fetch past fixtures",
		func(ctx context.Context) (json.RawMessage, error) {
			return h.footballService.PastFixtures(ctx, league)
		})
}

// LiveFixtures relays fixtures currently in play.
func (h *FootballHandler) LiveFixtures(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r, "live fixtures", "", "Failed to fetch live fixtures", h.footballService.LiveFixtures)
}

// relay writes the provider body as-is. Provider errors are logged and
// replaced with failMsg so upstream details never reach the client.
func (h *FootballHandler) relay(
	w http.ResponseWriter,
	r *http.Request,
	name, badLeagueMsg, failMsg string,
	fetch func(ctx context.Context) (json.RawMessage, error),
) {
	body, err := fetch(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrUnknownLeague) {
			writeError(w, http.StatusBadRequest, badLeagueMsg)
			return
		}
		h.logger.ErrorContext(r.Context(), "football proxy failed", slog.String("endpoint", name), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}
