package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentpricing/internal/infra/config"
	"rentpricing/internal/infra/obs"
)

type PricingHTTP interface {
	Price(c *gin.Context)
	Calendar(c *gin.Context)
	Logs(c *gin.Context)
	ToggleUnit(c *gin.Context)
	ToggleAll(c *gin.Context)
}

type ProfileHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	ListRules(c *gin.Context)
	CreateRule(c *gin.Context)
	UpdateRule(c *gin.Context)
	DeleteRule(c *gin.Context)
}

type Handlers struct {
	Pricing  PricingHTTP
	Profiles ProfileHTTP
	Metrics  *obs.Metrics
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.Env, obsMW, health, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func NewRouter(env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if h.Metrics != nil {
		router.Use(h.Metrics.HTTP())
	}
	router.Use(obsMW.RequestTimeout())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", ownerHeader, idempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", h.Metrics.Handler())
	}

	api := router.Group("/api/v1")
	if h.Pricing != nil {
		api.GET("/units/:id/price", h.Pricing.Price)
		api.GET("/units/:id/price-calendar", h.Pricing.Calendar)
		api.GET("/units/:id/price-logs", h.Pricing.Logs)
		api.POST("/units/:id/dynamic-pricing", h.Pricing.ToggleUnit)
		api.POST("/units/dynamic-pricing", h.Pricing.ToggleAll)
	}
	if h.Profiles != nil {
		profiles := api.Group("/pricing/profiles")
		profiles.GET("", h.Profiles.List)
		profiles.POST("", h.Profiles.Create)
		profiles.GET("/:id", h.Profiles.Get)
		profiles.PUT("/:id", h.Profiles.Update)
		profiles.DELETE("/:id", h.Profiles.Delete)
		profiles.GET("/:id/rules", h.Profiles.ListRules)
		profiles.POST("/:id/rules", h.Profiles.CreateRule)

		rules := api.Group("/pricing/rules")
		rules.PUT("/:id", h.Profiles.UpdateRule)
		rules.DELETE("/:id", h.Profiles.DeleteRule)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
