package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/health"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
)

// RouterConfig holds the HTTP surface settings that come from configuration.
type RouterConfig struct {
	CORSAllowedOrigins []string
	PprofCIDRs         []string
	// Media serves /media/* when the storage backend hands out local URLs.
	Media http.Handler
}

// NewRouter creates a chi router with every vault route registered.
func NewRouter(
	svc Services,
	healthHandler *health.Handler,
	metrics *middleware.HTTPMetrics,
	gatherer prometheus.Gatherer,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing)
	r.Use(metrics.Handler)
	r.Use(middleware.Auth(svc.Authenticator))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if cfg.Media != nil {
		r.Get("/media/*", cfg.Media.ServeHTTP)
	}
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	authHandler := NewAuthHandler(svc.Auth, logger)
	codeHandler := NewVerificationHandler(svc.Verification, svc.Users, logger)
	userHandler := NewUserHandler(svc.Users, svc.Lifecycle, logger)
	credentialHandler := NewCredentialHandler(svc.Credentials, logger)
	categoryHandler := NewCategoryHandler(svc.Categories, logger)
	adminHandler := NewAdminHandler(svc.Users, svc.Dashboard, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.With(middleware.NoStore).Post("/login", authHandler.Login)
		r.With(middleware.NoStore).Post("/refresh-token", authHandler.RefreshToken)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/logout", authHandler.Logout)
			r.Post("/user/send-verification-code", codeHandler.Send)
			r.Post("/user/verify-code", codeHandler.Verify)
			r.With(middleware.NoStore).Get("/user/password/{id}", credentialHandler.Reveal)
			r.Get("/user/view-trend", credentialHandler.ViewTrend)
		})
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/me", userHandler.Me)
		r.Put("/update", userHandler.Update)
		r.Post("/freeze-account", userHandler.Freeze)
		r.Post("/upload-profile-picture", userHandler.UploadPicture)

		r.Post("/passwords", credentialHandler.Create)
		r.Get("/passwords", credentialHandler.List)
		r.Get("/passwords/by-category", credentialHandler.ListByCategory)
		r.Put("/passwords/{id}", credentialHandler.Update)
		r.Delete("/passwords/{id}", credentialHandler.Delete)
		r.Put("/passwords/{id}/toggle-featured", credentialHandler.ToggleFeatured)
		r.Get("/featured-passwords", credentialHandler.Featured)
		r.Get("/most-viewed-passwords", credentialHandler.MostViewed)

		r.Get("/categories", categoryHandler.ListActive)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Get("/dashboard", adminHandler.Dashboard)

		r.Get("/users", adminHandler.ListUsers)
		r.Post("/users", adminHandler.CreateUser)
		r.Put("/users/{id}", adminHandler.UpdateUser)
		r.Delete("/users/{id}", adminHandler.DeleteUser)

		r.Get("/categories", categoryHandler.List)
		r.Post("/categories", categoryHandler.Create)
		r.Put("/categories/{id}", categoryHandler.Update)
		r.Delete("/categories/{id}", categoryHandler.Delete)
	})

	return r
}
