// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	accountsfeature "github.com/intellipmo/intellipmo/internal/app/features/accounts"
	domainsfeature "github.com/intellipmo/intellipmo/internal/app/features/domains"
	groupsfeature "github.com/intellipmo/intellipmo/internal/app/features/groups"
	healthfeature "github.com/intellipmo/intellipmo/internal/app/features/health"
	sessionsfeature "github.com/intellipmo/intellipmo/internal/app/features/sessions"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every route lives under /api and speaks
// JSON; the auth middleware reads the bearer token per route group.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc, err := buildServices(appCfg, deps.MongoDatabase, logger)
	if err != nil {
		logger.Error("service wiring failed", zap.Error(err))
		return nil, err
	}
	// Expired throttle windows are swept for the life of the process.
	go svc.Throttle.Run(context.Background())

	return newRouter(svc, healthfeature.NewHandler(deps.MongoClient, logger), logger), nil
}

func newRouter(svc *services, health *healthfeature.Handler, logger *zap.Logger) chi.Router {
	mw := svc.Middleware

	accountsHandler := accountsfeature.NewHandler(svc.Accounts, svc.Logins, svc.Throttle, logger)
	sessionsHandler := sessionsfeature.NewHandler(svc.Registry, logger)
	domainsHandler := domainsfeature.NewHandler(svc.Domains, svc.Supervisors, svc.Registry, svc.Accounts, logger)
	groupsHandler := groupsfeature.NewHandler(svc.Coordinator, svc.Accounts, logger)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		// Health check endpoint for load balancers and orchestrators
		api.Mount("/health", healthfeature.Routes(health))

		// Accounts
		api.Mount("/students", accountsfeature.StudentRoutes(accountsHandler, mw))
		api.Mount("/supervisors", accountsfeature.SupervisorRoutes(accountsHandler))
		api.Mount("/evaluators", accountsfeature.EvaluatorRoutes(accountsHandler))
		api.Mount("/admins", accountsfeature.AdminRoutes(accountsHandler, sessionsfeature.AdminRoutes(sessionsHandler, mw)))
		api.Mount("/me", accountsfeature.MeRoutes(accountsHandler, mw))

		// Sessions
		api.Mount("/sessions", sessionsfeature.Routes(sessionsHandler))
		api.Mount("/session-policy", sessionsfeature.PolicyRoutes(sessionsHandler, mw))

		// Domains
		api.Mount("/domains", domainsfeature.Routes(domainsHandler, mw))
		api.Mount("/domains-supervisors", domainsfeature.SupervisorRoutes(domainsHandler, mw))

		// Group formation
		api.Mount("/groups", groupsfeature.Routes(groupsHandler, mw))
	})

	return r
}
