// Package server wires the HTTP API together: database, services,
// handlers, middleware and routes all meet in New. This is the
// composition root; nothing below it constructs its own dependencies.
//
//	sqlite.DB → SnippetService / AuthService → handlers → chi router
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/victorlut/cheathub/internal/auth"
	"github.com/victorlut/cheathub/internal/handler"
	"github.com/victorlut/cheathub/internal/middleware"
	sqliteRepo "github.com/victorlut/cheathub/internal/repository/sqlite"
	"github.com/victorlut/cheathub/internal/service"
)

// ShutdownTimeout bounds how long in-flight requests get after the
// run context is cancelled.
const ShutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	// PasswordCost overrides the bcrypt cost; zero keeps the default.
	PasswordCost int
}

// Server owns the router and the database connection. The connection is
// closed when Run returns.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and registers every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)

	return s, nil
}

// setupRoutes registers:
//
//	POST   /api/auth/register
//	POST   /api/auth/login
//	GET    /api/auth/me              (auth)
//	GET    /api/snippets             (optional auth)
//	GET    /api/snippets/{id}        (optional auth)
//	POST   /api/snippets             (auth)
//	PUT    /api/snippets/{id}        (auth)
//	DELETE /api/snippets/{id}        (auth)
//	POST   /api/snippets/{id}/fave   (auth)
//	DELETE /api/snippets/{id}/fave   (auth)
//	GET    /healthz
//
// Middleware order matters: RequestID must precede Logger so the id is
// in every log line, and Recoverer sits inside Logger so a panic is still
// logged as a 500.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	snippetService := service.NewSnippetService(s.db, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	passwords := auth.NewPasswordService()
	if s.config.PasswordCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.PasswordCost)
	}
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens), middleware.RecordIdentity)
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens), middleware.RecordIdentity)
			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/fave", snippetHandler.HandleFave)
			r.Delete("/snippets/{id}/fave", snippetHandler.HandleUnfave)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout and closes the database.
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown requested", slog.String("cause", context.Cause(ctx).Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
