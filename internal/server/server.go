// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, the audit
// recorder, services, handlers, middleware and routes, and decides:
// - Which URL patterns map to which handler functions
// - What middleware (and which permission check) runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlite.DB ──(Observe)── audit.Recorder
//	                   │
//	                   ├─ UserDB / SnippetDB / AuditDB
//	                   │      ↓
//	                   │   services ← auth.TokenService, auth.PasswordService
//	                   │      ↓
//	                   └─ handlers → chi routes
//
// This is the "composition root" pattern: all dependencies are wired in
// one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/snippets-api/internal/audit"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/config"
	"github.com/sakif/snippets-api/internal/handler"
	"github.com/sakif/snippets-api/internal/middleware"
	sqliteRepo "github.com/sakif/snippets-api/internal/repository/sqlite"
	"github.com/sakif/snippets-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it on the way out
// so pending WAL writes are flushed and the file lock is released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	tokens    *auth.TokenService
	passwords *auth.PasswordService
}

// New opens the database, registers the audit recorder and builds the
// router.
//
// THE RECORDER IS REGISTERED HERE, ONCE:
// Every mutation of a User or Snippet, whichever handler triggers it, runs
// through sqlite.DB's observer list, so registering the recorder at the
// composition root is enough to audit the whole API.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	audit.NewRecorder(logger, cfg.Audit.Strict).Register(db)
	if !cfg.Audit.Strict {
		logger.Warn("audit is best-effort: failed audit appends will not block mutations")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		tokens:    tokens,
		passwords: auth.NewPasswordService(cfg.Auth.BcryptCost),
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                           → API root                (public)
//	POST   /login                      → JWT login               (public)
//	POST   /logout                     → clear token cookie      (public)
//	GET    /me                         → caller's account        (authenticated)
//	GET    /snippets                   → list snippets           (public)
//	GET    /snippets/{id}              → one snippet             (public)
//	GET    /snippets/{id}/highlight    → highlighted HTML page   (public)
//	POST   /snippets                   → create snippet          (authenticated)
//	PUT    /snippets/{id}              → update snippet          (owner or staff)
//	DELETE /snippets/{id}              → delete snippet          (owner or staff)
//	GET    /users                      → list users              (public)
//	GET    /users/{id}                 → one user                (public)
//	POST   /users/create               → create user             (staff)
//	DELETE /users/delete               → deactivate user         (staff)
//	GET    /audit-records              → list audit records      (staff)
//	GET    /audit-records/{id}         → one audit record        (staff)
//
// "Owner or staff" is decided by the snippet service, which is the only
// place that knows who owns a snippet; the router only demands a login.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique id to each request
//  2. RealIP: extracts the real client IP from proxy headers
//  3. Logger: logs each request once it completes
//  4. Recoverer: turns panics into 500s (inside Logger, so they get logged)
//  5. Authenticate: binds the caller as the actor on the request context
//  6. CaptureActor: hands that actor back to Logger
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Authenticate(s.tokens, s.db.Users(), s.logger))
	s.router.Use(middleware.CaptureActor)

	// === Services ===
	// Each service receives the repository interfaces it needs, never the
	// concrete *sqlite.DB.
	userService := service.NewUserService(s.db.Users(), s.db.Snippets(), s.passwords, s.logger)
	snippetService := service.NewSnippetService(s.db.Snippets(), s.logger)
	auditService := service.NewAuditService(s.db.Audit())
	authService := service.NewAuthService(s.db.Users(), s.tokens, s.passwords, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, userService, s.tokens, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	auditHandler := handler.NewAuditHandler(auditService)

	s.router.Get("/", handler.HandleAPIRoot)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)
	s.router.With(auth.RequireAuth).Get("/me", authHandler.HandleMe)

	s.router.Route("/snippets", func(r chi.Router) {
		r.Get("/", snippetHandler.HandleList)
		r.Get("/{id}", snippetHandler.HandleGetByID)
		r.Get("/{id}/highlight", snippetHandler.HandleHighlight)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/", snippetHandler.HandleCreate)
			r.Put("/{id}", snippetHandler.HandleUpdate)
			r.Delete("/{id}", snippetHandler.HandleDelete)
		})
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireStaff)
			r.Post("/create", userHandler.HandleCreate)
			r.Delete("/delete", userHandler.HandleDelete)
		})
	})

	s.router.Route("/audit-records", func(r chi.Router) {
		r.Use(auth.RequireStaff)
		r.Get("/", auditHandler.HandleList)
		r.Get("/{id}", auditHandler.HandleGetByID)
	})
}

// Handler returns the fully wired HTTP handler, wrapped in OpenTelemetry
// instrumentation so every request gets a span. The audit recorder adds its
// "audit.record" events to that span.
//
// Without a configured TracerProvider the global no-op provider is used and
// the wrapper costs next to nothing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "snippets-api")
}

// Close releases the database. Start calls it itself; tests that only use
// Handler must call it.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a
// listener error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.DB.Path),
			slog.Bool("audit_strict", s.config.Audit.Strict),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
