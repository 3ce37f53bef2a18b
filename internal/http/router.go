package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"confide/internal/admin"
	contenthandler "confide/internal/content/handler"
	platformMiddleware "confide/internal/platform/middleware"
	rejectionhandler "confide/internal/rejection/handler"
	suspensionMiddleware "confide/internal/suspension/middleware"
	"confide/pkg/platform/middleware/metadata"
)

// RouterConfig wires the handlers and cross-cutting middleware into the HTTP
// surface.
type RouterConfig struct {
	Content     *contenthandler.Handler
	Rejections  *rejectionhandler.Handler
	Admin       *admin.Handler
	Suspensions *suspensionMiddleware.Middleware
	JWT         platformMiddleware.JWTValidator
	Logger      *slog.Logger
}

// NewRouter assembles all routes. Submission endpoints sit behind the
// suspension check; everything under /admin except login requires a bearer
// token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(platformMiddleware.RequestID)
	r.Use(platformMiddleware.Recovery(cfg.Logger))
	r.Use(platformMiddleware.Logger(cfg.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(platformMiddleware.ContentTypeJSON)
	r.Use(platformMiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", cfg.Content.ListPosts)
		r.Get("/posts/{uuid}", cfg.Content.GetPost)
		r.Get("/posts/{uuid}/comments", cfg.Content.ListComments)

		// Writes are gated on the suspension registry before moderation.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Suspensions.CheckSuspended)
			r.Post("/posts", cfg.Content.CreatePost)
			r.Post("/posts/{uuid}/comments", cfg.Content.CreateComment)
			r.Post("/posts/{uuid}/reactions", cfg.Content.ReactToPost)
			r.Post("/comments/{id}/reactions", cfg.Content.ReactToComment)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", cfg.Admin.Login)

		r.Group(func(r chi.Router) {
			r.Use(platformMiddleware.RequireAdmin(cfg.JWT, cfg.Logger))

			r.Get("/posts", cfg.Content.AdminListPosts)
			r.Patch("/posts/{uuid}", cfg.Content.AdminUpdatePost)
			r.Delete("/posts/{uuid}", cfg.Content.AdminDeletePost)

			r.Get("/rejections", cfg.Rejections.List)
			r.Get("/rejections/{id}", cfg.Rejections.Get)
			r.Post("/rejections/{id}/suspend", cfg.Rejections.Suspend)

			r.Get("/suspensions", cfg.Rejections.ListSuspensions)
		})
	})

	return r
}
