// Package server wires the HTTP surface: routes, security middleware,
// rate limits, and the role policy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/authz"
	"github.com/saasify/saasify-api/internal/config"
	"github.com/saasify/saasify-api/internal/csrf"
	"github.com/saasify/saasify-api/internal/handlers"
	"github.com/saasify/saasify-api/internal/middleware"
	"github.com/saasify/saasify-api/internal/ratelimit"
	"github.com/saasify/saasify-api/internal/respond"
	"github.com/saasify/saasify-api/internal/token"
)

const loginLimitMessage = "Too many login attempts. Please try again later."

// Deps are the wired dependencies the router needs.
type Deps struct {
	Auth          *auth.Service
	Codec         *token.Codec
	Policy        *authz.Policy
	GlobalLimiter ratelimit.Limiter
	LoginLimiter  ratelimit.Limiter
	Logger        *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New builds a ready-to-start server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	router, err := NewRouter(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}, nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

// NewRouter builds the full route tree. Exposed separately so tests can
// exercise the wired surface without binding a listener.
func NewRouter(cfg config.Config, deps Deps) (http.Handler, error) {
	secure := cfg.IsProduction()
	cookies := handlers.SessionCookies{
		Name:   cfg.SessionCookieName,
		TTL:    cfg.SessionTTL,
		Secure: secure,
	}
	guard := csrf.NewGuard(secure)

	authH := handlers.NewAuthHandler(deps.Auth, cookies, deps.Logger)
	profileH := handlers.NewProfileHandler(deps.Auth, cookies, deps.Logger)
	csrfH := handlers.NewCSRFHandler(guard, deps.Logger)

	requireAuth := middleware.RequireAuth(deps.Codec, middleware.FromCookie(cookies.CookieName()))

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(securityHeaders(secure))
	r.Use(recoverer(deps.Logger))
	r.Use(ratelimit.Middleware(deps.GlobalLimiter, deps.Logger, ""))
	r.Use(corsMiddleware(cfg.CORSOrigin))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/health", handlers.Health)

	var policyErr error
	requireRoleFor := func(path string) func(http.Handler) http.Handler {
		roles, ok := deps.Policy.AllowedRoles(path)
		if !ok && policyErr == nil {
			policyErr = fmt.Errorf("route policy does not cover %s", path)
		}
		return middleware.RequireRole(roles...)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(noCache).Post("/signup", authH.Signup)
			r.With(ratelimit.Middleware(deps.LoginLimiter, deps.Logger, loginLimitMessage), noCache).
				Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)
			r.Get("/oauth/{provider}/start", authH.OAuthStub)
			r.Get("/oauth/{provider}/callback", authH.OAuthStub)
		})

		r.Get("/csrf/token", csrfH.Token)

		r.Route("/protected", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(requireRoleFor("/api/protected/user")).Get("/user", protectedMessage("Hello, authenticated user!"))
			r.With(requireRoleFor("/api/protected/manager")).Get("/manager", protectedMessage("Manager access granted."))
			r.With(requireRoleFor("/api/protected/admin")).Get("/admin", protectedMessage("Admin access granted."))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", profileH.Get)
			r.With(guard.Require).Put("/me", profileH.Update)
			r.With(guard.Require).Put("/me/password", profileH.ChangePassword)
			r.With(guard.Require).Delete("/me", profileH.Delete)
		})
	})

	if policyErr != nil {
		return nil, policyErr
	}
	return r, nil
}

func protectedMessage(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusOK, msg)
	}
}
