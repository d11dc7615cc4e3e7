package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pitchside/apiserver/config"
	"github.com/pitchside/apiserver/internal/auth"
	"github.com/pitchside/apiserver/internal/db"
	"github.com/pitchside/apiserver/internal/handlers"
	"github.com/pitchside/apiserver/internal/logging"
	"github.com/pitchside/apiserver/internal/mq"
	"github.com/pitchside/apiserver/internal/services"
	"github.com/pitchside/apiserver/internal/store"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
	logger     *slog.Logger
}

// New opens the database and event backend and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	backend, err := mq.NewBackend(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq backend: %w", err)
	}
	events := mq.New(backend, logger)

	router := NewRouter(cfg, dbConn, events, logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Football.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
		logger:     logger,
	}, nil
}

// NewRouter builds the full route tree on top of dbConn.
func NewRouter(cfg config.Config, dbConn *sql.DB, events services.EventEmitter, logger *slog.Logger) *chi.Mux {
	userRepo := store.NewUserRepository(dbConn)
	favoriteRepo := store.NewFavoriteRepository(dbConn)

	userService := services.NewUserService(userRepo, events)
	favoriteService := services.NewFavoriteService(favoriteRepo, events)
	footballService := services.NewFootballService(cfg.Football, nil, logger)

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authMiddleware := handlers.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)

	router.Get("/healthz", handlers.Healthz(dbConn))
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, tokens, logger)
	})
	router.Route("/api/football", func(r chi.Router) {
		handlers.FootballRouter(r, footballService, authMiddleware, logger)
	})
	router.Route("/api/favorites", func(r chi.Router) {
		handlers.FavoriteRouter(r, favoriteService, authMiddleware, logger)
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases the database and event backend.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests and waits for active ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		if closeErr := s.events.Close(); closeErr != nil {
			s.logger.Warn("close mq backend failed", slog.Any("error", closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
