package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clairehq/claire/internal/http/chatbot"
	"github.com/clairehq/claire/internal/http/export"
	"github.com/clairehq/claire/internal/http/goals"
	"github.com/clairehq/claire/internal/http/health"
	"github.com/clairehq/claire/internal/http/insights"
	"github.com/clairehq/claire/internal/http/plans"
	"github.com/clairehq/claire/internal/http/query"
	"github.com/clairehq/claire/internal/http/uploads"
	"github.com/clairehq/claire/internal/http/users"
)

func New(
	authenticate func(http.Handler) http.Handler,
	allowedOrigins []string,
	healthV1 *health.Handler,
	usersV1 *users.Handler,
	uploadsV1 *uploads.Handler,
	queryV1 *query.Handler,
	insightsV1 *insights.Handler,
	goalsV1 *goals.Handler,
	plansV1 *plans.Handler,
	chatbotV1 *chatbot.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Monitoring stays unauthenticated so probes don't need tokens.
	router.Get("/", healthV1.Root)
	router.Get("/services_health", healthV1.Services)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/app_health", healthV1.App)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", usersV1.Routes)
			r.Route("/file-uploads", uploadsV1.Routes)
			r.Route("/query", queryV1.Routes)
			r.Route("/insights", insightsV1.Routes)
			r.Route("/goals", goalsV1.Routes)
			r.Route("/earn-extra", plansV1.Routes)
			r.Route("/chatbot", chatbotV1.Routes)
			r.Route("/export", exportV1.Routes)
		})
	})

	return router
}
