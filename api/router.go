package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/api/handler"
	"github.com/use-agent/harvest/api/middleware"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/dispatch"
	"github.com/use-agent/harvest/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(st store.Store, d *dispatch.Dispatcher, pool handler.PoolStatser, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health. No auth required.
	v1.GET("/health", handler.Health(pool, cfg.Worker.Count, startTime))

	// Protected group. Auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Clients
	protected.POST("/clients", handler.RegisterClient(st))

	// Tasks
	protected.POST("/tasks", handler.SubmitTask(d))
	protected.GET("/tasks", handler.ListTasks(st))
	protected.GET("/tasks/:id", handler.GetTask(st))

	// Products
	protected.GET("/products", handler.ListProducts(st))

	return r
}
