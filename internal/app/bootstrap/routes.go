// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatsfeature "github.com/dalemusser/helplink/internal/app/features/chats"
	donationsfeature "github.com/dalemusser/helplink/internal/app/features/donations"
	eventsfeature "github.com/dalemusser/helplink/internal/app/features/events"
	feedbackfeature "github.com/dalemusser/helplink/internal/app/features/feedback"
	healthfeature "github.com/dalemusser/helplink/internal/app/features/health"
	helprequestsfeature "github.com/dalemusser/helplink/internal/app/features/helprequests"
	reportsfeature "github.com/dalemusser/helplink/internal/app/features/reports"
	usersfeature "github.com/dalemusser/helplink/internal/app/features/users"
	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. HelpLink mounts one feature router per
// resource, plus health and metrics endpoints.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.HelpLinkMongoDatabase
	dispatcher := runtime.dispatcher

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.HelpLinkMongoClient, outboxstore.New(db), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	usersHandler := usersfeature.NewHandler(db, logger)
	r.Route("/users", usersHandler.MountRoutes)

	helpRequestsHandler := helprequestsfeature.NewHandler(db, dispatcher, logger)
	r.Route("/help-requests", helpRequestsHandler.MountRoutes)

	donationsHandler := donationsfeature.NewHandler(db, dispatcher, logger)
	r.Route("/donations", donationsHandler.MountRoutes)

	eventsHandler := eventsfeature.NewHandler(db, dispatcher, logger)
	r.Route("/events", eventsHandler.MountRoutes)

	feedbackHandler := feedbackfeature.NewHandler(db, logger)
	r.Route("/feedback", feedbackHandler.MountRoutes)

	reportsHandler := reportsfeature.NewHandler(db, logger)
	r.Route("/reports", reportsHandler.MountRoutes)

	chatsHandler := chatsfeature.NewHandler(db, logger)
	r.Route("/chats", chatsHandler.MountRoutes)

	return r, nil
}
