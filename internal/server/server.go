// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "wiring" layer: the composition root where the dependency
// chain is assembled in one place:
//
//	sqlite.DB → services → handlers → routes
//
// main.go stays minimal (load config, create logger, start server), and
// every layer receives only the interfaces it needs.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nahid/queryhive-server/internal/auth"
	"github.com/nahid/queryhive-server/internal/config"
	"github.com/nahid/queryhive-server/internal/handler"
	"github.com/nahid/queryhive-server/internal/middleware"
	sqliteRepo "github.com/nahid/queryhive-server/internal/repository/sqlite"
	"github.com/nahid/queryhive-server/internal/service"
	"github.com/nahid/queryhive-server/internal/validation"
)

// Server owns the router, the configuration, and the database connection.
// The DB is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency graph.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath, cfg.StoreTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services and handlers, and
// maps the route table.
//
// MIDDLEWARE ORDER: RequestID → RealIP → Recoverer → CORS → Logger. CORS
// must run before anything that writes a body so preflights short-circuit
// cleanly; Recoverer turns handler panics into 500s instead of dropped
// connections.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	// The browser client sends the session cookie cross-origin, so
	// AllowCredentials is required and the origin list must be explicit;
	// a wildcard origin with credentials is rejected by browsers.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(middleware.Logger(s.logger))

	// === Dependency wiring ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	validate := validation.New()
	passwords := auth.NewPasswordService()

	queryService := service.NewQueryService(s.db, s.config.RecentLimit, s.logger)
	recService := service.NewRecommendationService(s.db, s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)

	queryHandler := handler.NewQueryHandler(queryService, validate, s.logger)
	recHandler := handler.NewRecommendationHandler(recService, validate, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, handler.CookieConfig{
		TTL:    s.config.TokenTTL,
		Secure: s.config.CookieSecure,
	}, validate, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	// === Routes ===
	// The flat paths mirror the API the web client already speaks.
	s.router.Get("/", s.handleHealth)

	s.router.Post("/jwt", authHandler.HandleIssueToken)
	s.router.Post("/logout", authHandler.HandleLogout)
	s.router.Get("/logout", authHandler.HandleLogout) // older clients used GET
	s.router.Post("/users", authHandler.HandleRegister)

	s.router.Get("/recent-queries", queryHandler.HandleRecent)
	s.router.Get("/all-queries", queryHandler.HandleAll)
	s.router.Get("/details/{id}", queryHandler.HandleDetails)
	s.router.Post("/add-query", queryHandler.HandleCreate)
	s.router.Put("/update/{id}", queryHandler.HandleUpdate)

	s.router.Post("/recommendation", recHandler.HandleCreate)
	s.router.Get("/recommendation", recHandler.HandleListAll)
	s.router.Get("/recommendations/{queryId}", recHandler.HandleForQuery)
	s.router.Delete("/my-recommendation-delete/{id}", recHandler.HandleDelete)

	// Owner-only routes.
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Get("/my-queries", queryHandler.HandleMine)
		r.Get("/my-queries/{email}", queryHandler.HandleMine)
		r.Delete("/my-queries-delete/{id}", queryHandler.HandleDelete)
		r.Get("/my-recommendation/{email}", recHandler.HandleMine)
		r.Get("/recommendations-for-me/{email}", recHandler.HandleForMe)
	})

	// Social sign-in, only when an OAuth app is configured.
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// handleHealth is the plain-text liveness probe the hosting platform (and
// curious humans) hit.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "QueryHive server is running")
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// limit), close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Int("recentLimit", s.config.RecentLimit),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
