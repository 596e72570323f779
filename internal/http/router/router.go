package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mariabakes/breads-rest-api/internal/health"
	"github.com/mariabakes/breads-rest-api/internal/http/handler"
	"github.com/mariabakes/breads-rest-api/internal/http/middleware"
	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/security"
)

type Dependencies struct {
	AuthHandler   *handler.AuthHandler
	BakeryHandler *handler.BakeryHandler
	BreadHandler  *handler.BreadHandler
	TagHandler    *handler.TagHandler
	UserHandler   *handler.UserHandler

	JWTManager *security.JWTManager
	Gate       middleware.RevocationGate

	APIRateLimitRPM  int
	AuthRateLimitRPM int
	// Optional overrides; nil falls back to a process-local limiter.
	GlobalRateLimiter func(http.Handler) http.Handler
	AuthRateLimiter   func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	authRequired := middleware.AuthMiddleware(dep.JWTManager, dep.Gate)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(authRequired).Post("/logout", dep.AuthHandler.Logout)
			r.With(authRequired).Get("/tokens", dep.AuthHandler.Tokens)
		})

		r.Route("/bakeries", func(r chi.Router) {
			r.Get("/", dep.BakeryHandler.List)
			r.With(authRequired).Post("/", dep.BakeryHandler.Create)
			r.Get("/{id}", dep.BakeryHandler.Get)
			r.With(authRequired).Delete("/{id}", dep.BakeryHandler.Delete)
			r.Get("/{id}/tags", dep.TagHandler.ListForBakery)
			r.With(authRequired).Post("/{id}/tags", dep.TagHandler.Create)
		})

		r.Route("/breads", func(r chi.Router) {
			r.With(authRequired).Get("/", dep.BreadHandler.List)
			r.With(authRequired, middleware.RequireFresh).Post("/", dep.BreadHandler.Create)
			r.With(authRequired).Get("/{id}", dep.BreadHandler.Get)
			r.With(authRequired).Put("/{id}", dep.BreadHandler.Update)
			r.With(authRequired, middleware.RequireAdmin).Delete("/{id}", dep.BreadHandler.Delete)
			r.Group(func(r chi.Router) {
				r.Use(authRequired)
				r.Post("/{bread_id}/tags/{tag_id}", dep.BreadHandler.LinkTag)
				r.Delete("/{bread_id}/tags/{tag_id}", dep.BreadHandler.UnlinkTag)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/{id}", dep.TagHandler.Get)
			r.With(authRequired).Delete("/{id}", dep.TagHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", dep.UserHandler.Get)
			r.Delete("/{id}", dep.UserHandler.Delete)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
