package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pitchside/apiserver/config"
	"github.com/pitchside/apiserver/internal/auth"
	"github.com/pitchside/apiserver/internal/services"
	"github.com/pitchside/apiserver/internal/store"
	"github.com/pitchside/apiserver/types"
	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []types.User
}

func (m *memoryUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) GetByIdentifier(_ context.Context, username, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = len(m.users) + 1
	m.users = append(m.users, user)
	return user, nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].PasswordHash = hash
			return nil
		}
	}
	return store.ErrNotFound
}

type memoryFavorites struct {
	mu   sync.Mutex
	byID map[int]types.Favorite
}

func (m *memoryFavorites) GetByUser(_ context.Context, userID int) (types.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fav, ok := m.byID[userID]
	if !ok {
		return types.Favorite{}, store.ErrNotFound
	}
	return fav, nil
}

func (m *memoryFavorites) Upsert(_ context.Context, userID int, team string) (types.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fav, ok := m.byID[userID]
	if !ok {
		fav = types.Favorite{ID: len(m.byID) + 1, UserID: userID}
	}
	fav.Team = team
	m.byID[userID] = fav
	return fav, nil
}

func (m *memoryFavorites) DeleteByUser(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID)
	return nil
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, string, any) {}

type testAPI struct {
	router   *chi.Mux
	tokens   *auth.TokenService
	users    *memoryUsers
	upstream *httptest.Server
	requests chan *http.Request
}

// newTestAPI mounts every router against in-memory repositories and a fake
// football provider served by upstream.
func newTestAPI(t *testing.T, upstream http.HandlerFunc) *testAPI {
	t.Helper()

	api := &testAPI{
		users:    &memoryUsers{},
		tokens:   auth.NewTokenService([]byte("test-secret"), time.Hour),
		requests: make(chan *http.Request, 16),
	}

	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"response":[]}`)
		}
	}
	api.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case api.requests <- r.Clone(context.Background()):
		default:
		}
		upstream(w, r)
	}))
	t.Cleanup(api.upstream.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	footballCfg := config.FootballConfig{
		BaseURL:     api.upstream.URL,
		APIKey:      "key",
		APIHost:     "host",
		Season:      2024,
		WeeklyFrom:  "2024-12-03",
		WeeklyTo:    "2024-12-10",
		PastFrom:    "2024-12-02",
		PastTo:      "2024-12-08",
		PastLeagues: []string{"epl", "laliga"},
		Timeout:     time.Second,
	}

	userService := services.NewUserService(api.users, nopEmitter{})
	favoriteService := services.NewFavoriteService(&memoryFavorites{byID: map[int]types.Favorite{}}, nopEmitter{})
	footballService := services.NewFootballService(footballCfg, api.upstream.Client(), logger)
	guard := RequireAuth(api.tokens)

	router := chi.NewRouter()
	router.NotFound(NotFound)
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, userService, api.tokens, logger)
	})
	router.Route("/api/football", func(r chi.Router) {
		FootballRouter(r, footballService, guard, logger)
	})
	router.Route("/api/favorites", func(r chi.Router) {
		FavoriteRouter(r, favoriteService, guard, logger)
	})
	api.router = router
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (a *testAPI) register(t *testing.T, username, email, password string) AuthResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Message
}

func newRecorder(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}
