package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pitchside/apiserver/config"
	"github.com/pitchside/apiserver/types"
)

const maxUpstreamBody = 16 << 20

// FootballService relays requests to the football data provider and
// returns its JSON bodies unchanged.
type FootballService struct {
	client      *http.Client
	cfg         config.FootballConfig
	pastLeagues map[types.League]bool
	logger      *slog.Logger
}

// NewFootballService constructs a FootballService. A nil client gets one
// with the configured timeout.
func NewFootballService(cfg config.FootballConfig, client *http.Client, logger *slog.Logger) *FootballService {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	past := make(map[types.League]bool, len(cfg.PastLeagues))
	for _, key := range cfg.PastLeagues {
		if league, ok := types.ParseLeague(key); ok {
			past[league] = true
		}
	}

	return &FootballService{
		client:      client,
		cfg:         cfg,
		pastLeagues: past,
		logger:      logger,
	}
}

// Standings returns the league table for the configured season.
func (s *FootballService) Standings(ctx context.Context, leagueKey string) (json.RawMessage, error) {
	league, ok := types.ParseLeague(leagueKey)
	if !ok {
		return nil, ErrUnknownLeague
	}

	q := url.Values{}
	q.Set("league", strconv.Itoa(league.ProviderID()))
	q.Set("season", strconv.Itoa(s.cfg.Season))
	return s.fetch(ctx, "/standings", q)
}

// WeeklyFixtures returns fixtures inside the configured weekly window.
func (s *FootballService) WeeklyFixtures(ctx context.Context) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("dateFrom", s.cfg.WeeklyFrom)
	q.Set("dateTo", s.cfg.WeeklyTo)
	return s.fetch(ctx, "/fixtures", q)
}

// PastFixtures returns a league's fixtures inside the configured past window.
// Only leagues listed in the past-leagues config are served.
func (s *FootballService) PastFixtures(ctx context.Context, leagueKey string) (json.RawMessage, error) {
	league, ok := types.ParseLeague(leagueKey)
	if !ok || !s.pastLeagues[league] {
		return nil, ErrUnknownLeague
	}

	q := url.Values{}
	q.Set("league", strconv.Itoa(league.ProviderID()))
	q.Set("season", strconv.Itoa(s.cfg.Season))
	q.Set("from", s.cfg.PastFrom)
	q.Set("to", s.cfg.PastTo)
	return s.fetch(ctx, "/fixtures", q)
}

// LiveFixtures returns every fixture currently in play.
func (s *FootballService) LiveFixtures(ctx context.Context) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("live", "all")
	return s.fetch(ctx, "/fixtures", q)
}

func (s *FootballService) fetch(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint := s.cfg.BaseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-rapidapi-key", s.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", s.cfg.APIHost)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s: %w", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUpstream, path, err)
	}
	if len(body) > maxUpstreamBody {
		return nil, fmt.Errorf("%w: %s response too large", ErrUpstream, path)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s returned non-JSON body (status %d)", ErrUpstream, path, resp.StatusCode)
	}

	if resp.StatusCode/100 != 2 {
		s.logger.WarnContext(ctx, "football provider returned non-success status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
	}
	return json.RawMessage(body), nil
}
