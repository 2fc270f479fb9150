package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/comitanigiacomo/kanso-reminder-engine/docs"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/services"
)

type RouterDependencies struct {
	AuthHandler     *AuthHandler
	ReminderHandler *ReminderHandler
	HabitHandler    *HabitHandler
	TokenService    *services.TokenService
	// DB and Redis are optional; a nil value is reported as disabled by /health.
	DB              *sqlx.DB
	Redis           *redis.Client
	StartTime       time.Time
	RateLimit       int
	RateLimitWindow time.Duration
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "GET", "OPTIONS", "PUT", "DELETE"},
		AllowHeaders:    []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposeHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		healthy := true

		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				dbStatus = "unreachable"
				healthy = false
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "unreachable"
				healthy = false
			}
		}

		status, statusCode := "ok", http.StatusOK
		if !healthy {
			status, statusCode = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	public := apiV1.Group("")
	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))

	// Credential endpoints are limited per client address; the rest per user, so
	// clients sharing an address do not share a budget.
	if deps.Redis != nil && deps.RateLimit > 0 {
		public.Use(middleware.RateLimiterMiddleware(deps.Redis, middleware.RateLimit{
			Scope: "auth", Limit: deps.RateLimit, Window: deps.RateLimitWindow,
		}))
		protected.Use(middleware.RateLimiterMiddleware(deps.Redis, middleware.RateLimit{
			Scope: "api", Limit: deps.RateLimit, Window: deps.RateLimitWindow,
		}))
	}

	deps.AuthHandler.RegisterRoutes(public)
	{
		deps.AuthHandler.RegisterProtectedRoutes(protected)
		deps.ReminderHandler.RegisterRoutes(protected)
		deps.HabitHandler.RegisterRoutes(protected)
	}

	return router
}
