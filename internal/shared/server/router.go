package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/services/health"
	"teambuilder-backend/internal/sessions"
	"teambuilder-backend/internal/shared/config"
	"teambuilder-backend/internal/shared/metrics"
	"teambuilder-backend/internal/shared/server/middleware"
	"teambuilder-backend/internal/shared/server/respond"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"

	groupDefault     = "DEFAULT"
	groupSuggestions = "SUGGESTIONS"
)

// RouterDeps lists the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	CatalogHandler *catalog.Handler
	SessionHandler *sessions.Handler
	Health         *health.Service
	Limiter        *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(healthPath, metricsPath),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: groupDefault,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				groupDefault:     {Rate: 5, Burst: 20},
				groupSuggestions: {Rate: 10, Burst: 40},
			},
		}),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	registerMeRoutes(api)
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterRoutes(api)
	}
	if deps.SessionHandler != nil {
		deps.SessionHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup gives the suggestions endpoint, which the planner UI calls on
// every staged change, its own bucket.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/sessions/:id/suggestions" {
		return groupSuggestions
	}
	return groupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
