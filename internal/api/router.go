package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/app"
	iauth "github.com/careapp/carecoord/internal/auth"
	"github.com/careapp/carecoord/internal/handlers"
	"github.com/careapp/carecoord/internal/middleware"
	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/mail"
)

const (
	defaultRateLimitRequests = 100
	defaultRateLimitWindow   = time.Minute
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB        *gorm.DB
	JWT       *iauth.JWTService
	Config    *app.Config
	RateStore middleware.RateStore
	Photos    storage.PhotoStore
	Mailer    mail.Mailer
	Services  *Services
	Clock     func() time.Time
}

// NewRouter builds the Gin engine, wires middleware and registers every route under /api.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Photos == nil {
		return nil, errors.New("photo store must be provided")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	svc := deps.Services
	if svc == nil {
		var err error
		svc, err = NewServices(deps.DB, deps.Config, deps.Mailer, deps.Clock)
		if err != nil {
			return nil, err
		}
	}

	cfg := deps.Config
	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}
	requests := cfg.Server.RateLimit.Requests
	if requests <= 0 {
		requests = defaultRateLimitRequests
	}
	window := cfg.Server.RateLimit.Window
	if window <= 0 {
		window = defaultRateLimitWindow
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	r.Use(middleware.RateLimit(rateStore, requests, window))

	registerHealthRoutes(r, cfg, deps.Clock)

	if dir := strings.TrimSpace(cfg.Storage.UploadDir); dir != "" {
		r.Static(publicPath(cfg.Storage.PublicPath), dir)
	}

	api := r.Group("/api")

	registerInviteRoutes(api, handlers.NewInviteHandler(svc.Invites))
	registerScheduleRoutes(api, handlers.NewScheduleHandler(svc.Schedules, deps.Photos))
	registerTaskRoutes(api, handlers.NewTaskHandler(svc.Tasks, svc.Recurring))
	registerAuthRoutes(api, handlers.NewAuthHandler(svc.Users, svc.Invites, deps.JWT), middleware.Auth(deps.JWT))
	registerWorkerRoutes(api, handlers.NewWorkerHandler(svc.Workers, deps.Photos))
	registerPatientRoutes(api, handlers.NewPatientHandler(svc.Patients))
	var stream handlers.NotificationStream
	if svc.Hub != nil {
		stream = svc.Hub
	}
	registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.Notifications, deps.JWT, stream))
	registerTaskRequestRoutes(api, handlers.NewTaskRequestHandler(svc.TaskRequests))
	registerMessageRoutes(api, handlers.NewMessageHandler(svc.Messages))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func publicPath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path == "/" {
		return "/uploads"
	}
	return path
}
