package http

import (
	"context"
	"net/http"

	"github.com/condo-notify/internal/application/dispatch"
	"github.com/condo-notify/internal/application/notification"
	"github.com/condo-notify/internal/application/registry"
	tmpl "github.com/condo-notify/internal/application/template"
	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/transport/http/handler"
	appmiddleware "github.com/condo-notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// work started by middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 2 sends/second, burst of 5, per client IP.
	sendRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(2), 5)

	registrySvc := registry.NewService(deps.Endpoints)
	templateSvc := tmpl.NewService(deps.Templates)
	notifSvc := notification.NewService(deps.Notifications)
	dispatchSvc := dispatch.NewService(dispatch.ServiceDeps{
		Templates:     templateSvc,
		Registry:      registrySvc,
		Notifications: deps.Notifications,
		Gateway:       deps.Gateway,
		Archive:       deps.Archive,
		Concurrency:   cfg.DispatchConcurrency,
		PushTimeout:   cfg.PushTimeout,
	})

	healthH := handler.NewHealthHandler()
	endpointH := handler.NewEndpointHandler(registrySvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	templateH := handler.NewTemplateHandler(templateSvc)
	dispatchH := handler.NewDispatchHandler(dispatchSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Verifier))

			r.Post("/endpoints", endpointH.Register)
			r.Get("/endpoints", endpointH.List)
			r.Post("/endpoints/{id}/deactivate", endpointH.Deactivate)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread", notifH.ListUnread)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Post("/notifications/read-all", notifH.MarkAllRead)
			r.With(sendRL.Limit).Post("/notifications/test", dispatchH.Test)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}/read", notifH.MarkRead)

			r.Get("/templates", templateH.List)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.With(sendRL.Limit).Post("/notifications/dispatch", dispatchH.Dispatch)
				r.Put("/templates", templateH.Upsert)
			})
		})
	})

	return r
}
