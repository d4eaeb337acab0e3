package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/config"
	"github.com/JillVernus/claude-relay-service/internal/database"
	apierrors "github.com/JillVernus/claude-relay-service/internal/errors"
	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/logquery"
	"github.com/JillVernus/claude-relay-service/internal/middleware"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
	"github.com/JillVernus/claude-relay-service/internal/pricing"
)

// APIServer is the admin API: request-log reads, pricing overrides,
// login, health and metrics.
type APIServer struct {
	config        *config.Config
	router        *gin.Engine
	rdb           *cache.Redis
	db            *database.DB
	logQuery      *logquery.Service
	pricingStore  *pricing.Store
	authenticator *middleware.AdminAuthenticator
}

// NewAPIServer creates a new admin API server instance
func NewAPIServer(
	cfg *config.Config,
	rdb *cache.Redis,
	db *database.DB,
	logQuery *logquery.Service,
	pricingStore *pricing.Store,
) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	srv := &APIServer{
		config:        cfg,
		router:        router,
		rdb:           rdb,
		db:            db,
		logQuery:      logQuery,
		pricingStore:  pricingStore,
		authenticator: middleware.NewAdminAuthenticator(&cfg.Admin),
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", monitoring.GinHandler())

	admin := s.router.Group("/admin")
	{
		admin.POST("/auth/login", s.handleLogin)

		authed := admin.Group("")
		authed.Use(s.authenticator.AdminAuth())
		{
			authed.GET("/request-logs", s.handleRequestLogs)

			authed.GET("/accounts/:accountId/pricing", s.handleGetPricing)
			authed.PUT("/accounts/:accountId/pricing", s.handleSetPricing)
			authed.DELETE("/accounts/:accountId/pricing", s.handleDeletePricing)
			authed.PUT("/accounts/:accountId/pricing/:model", s.handleSetModelPricing)
			authed.DELETE("/accounts/:accountId/pricing/:model", s.handleDeleteModelPricing)
		}
	}
}

func (s *APIServer) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	detail := gin.H{}

	if err := s.rdb.Health(ctx); err != nil {
		detail["redis"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		detail["redis"] = "ok"
	}

	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			detail["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			detail["database"] = "ok"
		}
	}

	c.JSON(status, gin.H{"status": statusText(status), "detail": detail})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *APIServer) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apierrors.NewInvalidRequestError("username and password are required"))
		return
	}

	token, err := s.authenticator.Login(req.Username, req.Password)
	if err != nil {
		s.respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"expiresIn": int(s.config.Admin.TokenExpiry.Seconds()),
	})
}

func (s *APIServer) respondError(c *gin.Context, apiErr *apierrors.APIError) {
	c.JSON(apiErr.HTTPStatus, apierrors.ErrorResponse{
		Success:   false,
		Error:     *apiErr,
		RequestID: c.GetString(middleware.ContextKeyRequestID),
	})
}

func statusText(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
