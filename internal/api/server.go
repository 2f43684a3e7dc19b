package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Queue     *QueueHandler
	Entities  *EntityHandler
	Decisions *DecisionHandler
	Status    *StatusHandler
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(log logger.Interface, h Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/queue", h.Queue.List)
	v1.GET("/queue/stats", h.Queue.Stats)
	v1.POST("/queue", h.Queue.Enqueue)
	v1.GET("/entities", h.Entities.List)
	v1.GET("/entities/:id", h.Entities.Get)
	v1.GET("/decisions", h.Decisions.List)
	v1.GET("/metrics", h.Status.Metrics)
	v1.GET("/quota", h.Status.Quota)

	return router
}

// loggingMiddleware logs each request with latency and status.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

// NewServer builds the http.Server around the router with the configured
// timeouts.
func NewServer(cfg config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Shutdown gracefully stops the server within the given timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
