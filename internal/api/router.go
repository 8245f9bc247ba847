package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/mcoot/s3arena/internal/api/handler"
	"github.com/mcoot/s3arena/internal/api/middleware"
	"github.com/mcoot/s3arena/internal/api/response"
	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/events"
	"github.com/mcoot/s3arena/internal/metrics"
	sharedmw "github.com/mcoot/s3arena/internal/middleware"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/services/tasks"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	AuthService    *auth.Service
	AccountService *account.Service
	TaskService    *tasks.Service
	HubManager     *events.HubManager

	// Metrics receives request and login counts. Nil disables recording.
	Metrics metrics.Recorder
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler

	// MediaRoot is the directory stored photos are served from. Empty disables /media/.
	MediaRoot string

	// LoginRate and LoginBurst throttle the token endpoint per client address.
	// A zero rate disables throttling.
	LoginRate  rate.Limit
	LoginBurst int
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.AccountService, recorder)
	userHandler := handler.NewUserHandler(cfg.AccountService)
	taskHandler := handler.NewTaskHandler(cfg.TaskService)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := sharedmw.Logging(cfg.Logger, recorder)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)
	api.Use(middleware.Date(clk))

	// Auth routes (no auth required)
	var login http.Handler = http.HandlerFunc(authHandler.Login)
	if cfg.LoginRate > 0 {
		login = middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst, clk).Middleware(login)
	}
	api.Handle("/auth/token/", login).Methods(http.MethodPost)
	api.HandleFunc("/auth/token/refresh/", authHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/register/", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/register/parent/", authHandler.RegisterParent).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// User routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/", userHandler.List).Methods(http.MethodGet)
	users.HandleFunc("/{id}/", userHandler.Get).Methods(http.MethodGet)
	users.HandleFunc("/{id}/", userHandler.Update).Methods(http.MethodPatch)

	profiles := api.PathPrefix("/profiles").Subrouter()
	profiles.Use(authMiddleware)
	profiles.HandleFunc("/", userHandler.ListProfiles).Methods(http.MethodGet)

	// Task routes
	taskRoutes := api.PathPrefix("/tasks").Subrouter()
	taskRoutes.Use(authMiddleware)
	taskRoutes.HandleFunc("/", taskHandler.List).Methods(http.MethodGet)
	taskRoutes.HandleFunc("/", taskHandler.Create).Methods(http.MethodPost)

	coach := api.PathPrefix("/coach").Subrouter()
	coach.Use(authMiddleware)
	coach.HandleFunc("/tasks/{taskId}/player/{playerId}/complete/", taskHandler.Complete).Methods(http.MethodPost)

	player := api.PathPrefix("/player").Subrouter()
	player.Use(authMiddleware)
	player.HandleFunc("/my-tasks/", taskHandler.MyTasks).Methods(http.MethodGet)
	player.HandleFunc("/tasks/{taskId}/start/", taskHandler.Start).Methods(http.MethodPost)

	parent := api.PathPrefix("/parent").Subrouter()
	parent.Use(authMiddleware)
	parent.HandleFunc("/dashboard/", taskHandler.ParentDashboard).Methods(http.MethodGet)

	// Live task events
	stream := api.PathPrefix("/events").Subrouter()
	stream.Use(authMiddleware)
	stream.HandleFunc("/", eventsHandler.Stream).Methods(http.MethodGet)

	// Outside /api
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}
	if cfg.MediaRoot != "" {
		r.PathPrefix(response.MediaURL).Handler(
			http.StripPrefix(response.MediaURL, http.FileServer(http.Dir(cfg.MediaRoot))),
		).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
