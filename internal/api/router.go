package api

import (
	"context"
	"net/http"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/config"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RouterOptions carries the optional parts of the router
type RouterOptions struct {
	// Health is checked by /health; may be nil
	Health HealthChecker
	// Metrics enables the request metrics middleware; may be nil
	Metrics *metrics.Metrics
	// Gatherer is served on /metrics; defaults to the global registry
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, opts RouterOptions) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware(opts.Metrics))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigin))

	// Handlers
	authHandler := NewAuthHandler(services, cfg, log)
	boardHandler := NewBoardHandler(services, opts.Metrics, log)
	resourceHandler := NewResourceHandler(services, log)
	scheduleHandler := NewScheduleHandler(services, log)
	userHandler := NewUserHandler(services, log)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Health check
	router.GET("/health", healthCheck(opts.Health, log))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/stats", statsHandler(services))

	// Email confirmation lands here
	router.GET("/auth/callback", authHandler.Callback)

	// API v1
	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/signout", authHandler.SignOut)
		}

		protected := v1.Group("", authMiddleware(services.Auth))
		{
			protected.GET("/me", authHandler.Me)

			protected.GET("/resources/:type", resourceHandler.List)
			protected.POST("/resources/:type", resourceHandler.Create)

			boardGroup := protected.Group("/board")
			{
				boardGroup.GET("", boardHandler.Get)
				boardGroup.PUT("", boardHandler.Push)
				boardGroup.GET("/ws", boardHandler.Stream)
			}

			schedules := protected.Group("/schedules")
			{
				schedules.GET("", scheduleHandler.List)
				schedules.POST("", scheduleHandler.Snapshot)
				schedules.GET("/:id", scheduleHandler.Get)
				schedules.POST("/:id/restore", scheduleHandler.Restore)
			}

			users := protected.Group("/users")
			{
				users.GET("", userHandler.List)
				users.PATCH("/:id/role", userHandler.UpdateRole)
				users.POST("/:id/reset-password", userHandler.ResetPassword)
			}
		}
	}

	return router
}

// healthCheck returns the health status. An unreachable database turns it
// into a 503.
func healthCheck(checker HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := checker.HealthCheck(ctx)
			cancel()
			if err != nil {
				log.Error().Err(err).Msg("Health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "schedule-board",
		})
	}
}

// statsHandler returns resource counts and the number of live board subscribers
func statsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		counts, err := services.Resource.Counts(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"database":    counts,
			"subscribers": services.Events.Len(),
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	}
}
