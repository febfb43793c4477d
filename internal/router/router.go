// Package router sets up all HTTP routes and middleware chains for the
// BrandForge API. Routes are grouped by the auth level they require:
// public auth endpoints, signed-in endpoints, and admin-only endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"brandforge/internal/handlers"
	"brandforge/internal/middleware"
	"brandforge/internal/session"
)

// Handlers bundles the handler groups the router mounts.
type Handlers struct {
	Auth      *handlers.Auth
	Templates *handlers.Templates
	Brand     *handlers.Brand
	Generate  *handlers.Generate
	History   *handlers.History
	Profile   *handlers.Profile
}

// Options carries the cross-cutting pieces the route tree depends on.
type Options struct {
	Sessions *session.Store
	Secure   bool

	// AuthLimiter throttles credential endpoints, GenerateLimiter the
	// image generation endpoint. Either may be nil to disable limiting.
	AuthLimiter     *middleware.RateLimiter
	GenerateLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(opts.Sessions))

	// Health check. No auth, no CSRF.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.Secure))

		// Credential endpoints, reachable without a session.
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Middleware)
			}
			r.Post("/auth/signup", h.Auth.Signup)
			r.Post("/auth/login", h.Auth.Login)
		})
		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/auth/session", h.Auth.Session)

		// 2FA verification requires auth but not completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/2fa/verify", h.Auth.TwoFAVerify)
		})

		// Signed-in, 2FA-verified area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Post("/auth/2fa/setup", h.Auth.TwoFASetup)
			r.Post("/auth/2fa/disable", h.Auth.TwoFADisable)

			r.Get("/profile", h.Profile.Get)
			r.Put("/profile", h.Profile.Update)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", h.Templates.List)
				r.Get("/{id}", h.Templates.Get)

				// Template management is admin only.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", h.Templates.Create)
					r.Put("/{id}", h.Templates.Update)
					r.Delete("/{id}", h.Templates.Delete)
				})
			})

			r.Route("/brand", func(r chi.Router) {
				r.Get("/", h.Brand.Get)
				r.Put("/", h.Brand.Save)
				r.Get("/summary", h.Brand.Summary)
			})

			r.Route("/generate", func(r chi.Router) {
				if opts.GenerateLimiter != nil {
					r.Use(opts.GenerateLimiter.Middleware)
				}
				r.Post("/", h.Generate.Run)
				r.Post("/preview", h.Generate.Preview)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", h.History.List)
				r.Delete("/{id}", h.History.Delete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
