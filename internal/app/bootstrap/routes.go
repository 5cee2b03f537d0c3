// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	adminfeature "github.com/dalemusser/bloodconnect/internal/app/features/admin"
	donorsfeature "github.com/dalemusser/bloodconnect/internal/app/features/donors"
	healthfeature "github.com/dalemusser/bloodconnect/internal/app/features/health"
	loginfeature "github.com/dalemusser/bloodconnect/internal/app/features/login"
	logoutfeature "github.com/dalemusser/bloodconnect/internal/app/features/logout"
	profilefeature "github.com/dalemusser/bloodconnect/internal/app/features/profile"
	registerfeature "github.com/dalemusser/bloodconnect/internal/app/features/register"
	requestsfeature "github.com/dalemusser/bloodconnect/internal/app/features/requests"
	"github.com/dalemusser/bloodconnect/internal/app/system/httpjson"
	"github.com/dalemusser/bloodconnect/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so deps.Services is populated. Every
// route below /api answers JSON.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s := deps.Services
	if s == nil || s.SessionMgr == nil {
		return nil, errors.New("build handler: services not initialized; Startup must run first")
	}

	r := chi.NewRouter()

	// Request IDs first so every later log line can carry one.
	r.Use(requestid.Middleware)
	// Loads the principal from a bearer token or the session cookie.
	// Handlers read it with auth.CurrentUser(r).
	r.Use(s.SessionMgr.LoadSessionUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Message(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Message(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		registerHandler := registerfeature.NewHandler(s.Users, s.SessionMgr, s.Limiter, logger)
		registerHandler.Audit = s.AuditLog
		api.Mount("/auth/register", registerfeature.Routes(registerHandler))

		loginHandler := loginfeature.NewHandler(s.Users, s.SessionMgr, s.Limiter, logger)
		loginHandler.Audit = s.AuditLog
		api.Mount("/auth/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(s.SessionMgr, logger)
		logoutHandler.Audit = s.AuditLog
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

		// Own account
		profileHandler := profilefeature.NewHandler(s.Users, logger)
		profileHandler.Audit = s.AuditLog
		api.Mount("/users", profilefeature.Routes(profileHandler))

		// Donor search and donor self-service
		donorsHandler := donorsfeature.NewHandler(s.Search, s.DonationSvc, s.Users, s.RequestMgr, logger)
		api.Mount("/donors", donorsfeature.Routes(donorsHandler))

		// Blood requests
		requestsHandler := requestsfeature.NewHandler(s.RequestMgr, logger)
		api.Mount("/requests", requestsfeature.Routes(requestsHandler))

		// Administration
		adminHandler := adminfeature.NewHandler(s.Users, s.Donations, s.Requests, logger)
		adminHandler.Audit = s.AuditLog
		adminHandler.Events = s.Audit
		api.Mount("/admin", adminfeature.Routes(adminHandler))
	})

	return r, nil
}
