package server

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"haidtracker-service/auth"
	cachepackage "haidtracker-service/cache"
	"haidtracker-service/config"
	"haidtracker-service/database"
	"haidtracker-service/handlers"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// checkAuth verifies the bearer JWT for protected routes and exposes the
// verified claims to request logging.
func checkAuth(authSvc *auth.Service) func(r *http.Request) (bool, httpserver.RequestAuth) {
	return func(r *http.Request) (bool, httpserver.RequestAuth) {
		identity, err := authSvc.FromRequest(r)
		if err != nil {
			return false, httpserver.RequestAuth{}
		}
		return true, httpserver.RequestAuth{
			Type:   "bearer",
			Client: "user-" + strconv.Itoa(identity.UserID),
			Claims: map[string]interface{}{
				"userId": identity.UserID,
				"role":   identity.Role,
			},
		}
	}
}

func StartServer() {
	// Initialize logger
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting HaidTracker API...")

	cfg := config.Load()
	authSvc := auth.NewService(cfg.JWTSecret)

	// Initialize database
	dbConn := database.Initialize(cfg)
	defer dbConn.Close()

	// Initialize cache
	cache := cachepackage.Initialize(cfg)
	defer cache.Close()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(dbConn, cache, authSvc)
	userHandler := handlers.NewUserHandler(dbConn, cache, authSvc)
	cycleHandler := handlers.NewCycleHandler(dbConn, cache, authSvc)
	symptomHandler := handlers.NewSymptomHandler(dbConn, authSvc)
	reminderHandler := handlers.NewReminderHandler(dbConn, authSvc)
	analyticHandler := handlers.NewAnalyticHandler(dbConn, authSvc)

	// Create HTTP server with authentication
	server := httpserver.New(cfg.Port, checkAuth(authSvc))

	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/health",
		AuthType: "none",
	}, httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "haidtracker-api"}`))
	}))

	// Auth routes (unauthenticated)
	server.Register(httpserver.Route{
		Name:     "Register",
		Method:   "POST",
		Path:     "/auth/register",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Register))

	server.Register(httpserver.Route{
		Name:     "Login",
		Method:   "POST",
		Path:     "/auth/login",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.Login))

	// User routes. Literal paths (/users/profile) must be registered
	// before the {id} routes.
	server.Register(httpserver.Route{
		Name:     "ListUsers",
		Method:   "GET",
		Path:     "/users",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.GetUsers))

	server.Register(httpserver.Route{
		Name:     "CreateUser",
		Method:   "POST",
		Path:     "/users",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.CreateUser))

	server.Register(httpserver.Route{
		Name:     "GetProfile",
		Method:   "GET",
		Path:     "/users/profile",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.GetProfile))

	server.Register(httpserver.Route{
		Name:     "UpdateProfile",
		Method:   "PUT",
		Path:     "/users/profile",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.UpdateProfile))

	server.Register(httpserver.Route{
		Name:     "GetUser",
		Method:   "GET",
		Path:     "/users/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.GetUser))

	server.Register(httpserver.Route{
		Name:     "UpdateUser",
		Method:   "PUT",
		Path:     "/users/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.UpdateUser))

	server.Register(httpserver.Route{
		Name:     "DeleteUser",
		Method:   "DELETE",
		Path:     "/users/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(userHandler.DeleteUser))

	// Cycle routes
	server.Register(httpserver.Route{
		Name:     "ListCycles",
		Method:   "GET",
		Path:     "/cycles",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.GetCycles))

	server.Register(httpserver.Route{
		Name:     "SearchCycles",
		Method:   "GET",
		Path:     "/cycles/search",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.SearchCycles))

	server.Register(httpserver.Route{
		Name:     "CycleStats",
		Method:   "GET",
		Path:     "/cycles/stats",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.GetCycleStats))

	server.Register(httpserver.Route{
		Name:     "CreateCycle",
		Method:   "POST",
		Path:     "/cycles",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.CreateCycle))

	server.Register(httpserver.Route{
		Name:     "GetCycle",
		Method:   "GET",
		Path:     "/cycles/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.GetCycle))

	server.Register(httpserver.Route{
		Name:     "UpdateCycle",
		Method:   "PUT",
		Path:     "/cycles/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.UpdateCycle))

	server.Register(httpserver.Route{
		Name:     "DeleteCycle",
		Method:   "DELETE",
		Path:     "/cycles/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(cycleHandler.DeleteCycle))

	// Symptom routes
	server.Register(httpserver.Route{
		Name:     "ListSymptoms",
		Method:   "GET",
		Path:     "/symptoms",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.GetSymptoms))

	server.Register(httpserver.Route{
		Name:     "ListSymptomsByUser",
		Method:   "GET",
		Path:     "/symptoms/user/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.GetSymptomsByUser))

	server.Register(httpserver.Route{
		Name:     "CreateSymptom",
		Method:   "POST",
		Path:     "/symptoms",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.CreateSymptom))

	server.Register(httpserver.Route{
		Name:     "GetSymptom",
		Method:   "GET",
		Path:     "/symptoms/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.GetSymptom))

	server.Register(httpserver.Route{
		Name:     "UpdateSymptom",
		Method:   "PUT",
		Path:     "/symptoms/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.UpdateSymptom))

	server.Register(httpserver.Route{
		Name:     "DeleteSymptom",
		Method:   "DELETE",
		Path:     "/symptoms/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(symptomHandler.DeleteSymptom))

	// Reminder routes
	server.Register(httpserver.Route{
		Name:     "ListAllReminders",
		Method:   "GET",
		Path:     "/reminders/all",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.GetAllReminders))

	server.Register(httpserver.Route{
		Name:     "ListReminders",
		Method:   "GET",
		Path:     "/reminders",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.GetReminders))

	server.Register(httpserver.Route{
		Name:     "CreateReminder",
		Method:   "POST",
		Path:     "/reminders",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.CreateReminder))

	server.Register(httpserver.Route{
		Name:     "GetReminder",
		Method:   "GET",
		Path:     "/reminders/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.GetReminder))

	server.Register(httpserver.Route{
		Name:     "UpdateReminder",
		Method:   "PUT",
		Path:     "/reminders/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.UpdateReminder))

	server.Register(httpserver.Route{
		Name:     "DeleteReminder",
		Method:   "DELETE",
		Path:     "/reminders/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(reminderHandler.DeleteReminder))

	// Analytic routes
	server.Register(httpserver.Route{
		Name:     "ListAllAnalytics",
		Method:   "GET",
		Path:     "/analytics/all",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.GetAllAnalytics))

	server.Register(httpserver.Route{
		Name:     "ListAnalytics",
		Method:   "GET",
		Path:     "/analytics",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.GetAnalytics))

	server.Register(httpserver.Route{
		Name:     "CreateAnalytic",
		Method:   "POST",
		Path:     "/analytics",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.CreateAnalytic))

	server.Register(httpserver.Route{
		Name:     "GetAnalytic",
		Method:   "GET",
		Path:     "/analytics/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.GetAnalytic))

	server.Register(httpserver.Route{
		Name:     "UpdateAnalytic",
		Method:   "PUT",
		Path:     "/analytics/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.UpdateAnalytic))

	server.Register(httpserver.Route{
		Name:     "DeleteAnalytic",
		Method:   "DELETE",
		Path:     "/analytics/{id}",
		AuthType: "bearer",
	}, httpserver.HandlerFunc(analyticHandler.DeleteAnalytic))

	logRoutes(cfg.Port)

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}

func logRoutes(port string) {
	logger.Info("HaidTracker API started on port " + port)
	logger.Info("Health check: GET /health")
	logger.Info("Auth: POST /auth/register, POST /auth/login")
	logger.Info("Resources: /users /cycles /symptoms /reminders /analytics")
}
