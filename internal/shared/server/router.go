package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/archive"
	"mturk-tools/internal/services/health"
	"mturk-tools/internal/shared/config"
	"mturk-tools/internal/shared/metrics"
	"mturk-tools/internal/shared/server/middleware"
	"mturk-tools/internal/shared/server/respond"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"
)

// RouterDeps bundles handlers for NewRouter.
type RouterDeps struct {
	Config  config.Config
	Archive *archive.Handler
	Health  *health.Service
	// Now drives the rate limiter; nil uses time.Now.
	Now func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:  middleware.NewRateLimiter(deps.Now),
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT":  {Rate: 10, Burst: 30},
				"DOWNLOAD": {Rate: 1, Burst: 5},
			},
		}),
		middleware.Auth(deps.Config.APIToken, deps.Config.Env, healthPath, metricsPath),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.Archive != nil {
		deps.Archive.RegisterRoutes(api)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case healthPath, metricsPath:
		return "UNLIMITED"
	case "/api/v1/batches/:id/results.tsv", "/api/v1/batches/:id/stats":
		return "DOWNLOAD"
	default:
		return ""
	}
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
