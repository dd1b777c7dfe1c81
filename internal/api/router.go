package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/superbmd/superbmd/internal/api/handlers"
	"github.com/superbmd/superbmd/internal/api/middleware"
	"github.com/superbmd/superbmd/internal/auth"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/config"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"github.com/superbmd/superbmd/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const requestIDHeader = "X-Request-ID"

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, policy *rbac.Policy, c cache.Cache) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}

	authenticator := auth.NewJWTAuthenticator(db, cfg.Auth.JWTSecret,
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithIssuer(cfg.Auth.Issuer),
	)
	limits := query.Limits{Default: cfg.Pagination.DefaultLimit, Max: cfg.Pagination.MaxLimit}

	// Initialize handlers
	assetHandler := handlers.NewAssetHandler(service.NewAssetService(db, policy, c), limits)
	locationHandler := handlers.NewLocationHandler(service.NewLocationService(db, policy, c), limits)
	userHandler := handlers.NewUserHandler(service.NewUserService(db, policy), limits)
	reportHandler := handlers.NewReportHandler(service.NewReportService(db, policy, c), limits)
	healthHandler := handlers.NewHealthHandler(db)

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", healthHandler.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.POST("/auth/login", handlers.Login(authenticator))
	}

	// Protected routes (require authentication)
	protected := router.Group("/api")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.GetCurrentUser(authenticator))

		// Asset endpoints
		barang := protected.Group("/barang")
		{
			barang.GET("", middleware.RequireRead(policy, rbac.ResourceAsset), assetHandler.ListAssets)
			barang.GET("/:id", middleware.RequireRead(policy, rbac.ResourceAsset), assetHandler.GetAsset)
			barang.POST("", middleware.RequireWrite(policy, rbac.ResourceAsset), assetHandler.CreateAsset)
			barang.PUT("/:id", middleware.RequireWrite(policy, rbac.ResourceAsset), assetHandler.UpdateAsset)
			barang.DELETE("/:id", middleware.RequireWrite(policy, rbac.ResourceAsset), assetHandler.DeleteAsset)
		}

		// Location endpoints
		lokasi := protected.Group("/lokasi")
		{
			lokasi.GET("", middleware.RequireRead(policy, rbac.ResourceLocation), locationHandler.ListLocations)
			lokasi.GET("/:id", middleware.RequireRead(policy, rbac.ResourceLocation), locationHandler.GetLocation)
			lokasi.POST("", middleware.RequireWrite(policy, rbac.ResourceLocation), locationHandler.CreateLocation)
			lokasi.PUT("/:id", middleware.RequireWrite(policy, rbac.ResourceLocation), locationHandler.UpdateLocation)
			lokasi.DELETE("/:id", middleware.RequireWrite(policy, rbac.ResourceLocation), locationHandler.DeleteLocation)
		}

		// User endpoints
		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireRead(policy, rbac.ResourceUser), userHandler.ListUsers)
			users.GET("/:id", middleware.RequireRead(policy, rbac.ResourceUser), userHandler.GetUser)
			users.POST("", middleware.RequireWrite(policy, rbac.ResourceUser), userHandler.CreateUser)
			users.PUT("/:id", middleware.RequireWrite(policy, rbac.ResourceUser), userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireWrite(policy, rbac.ResourceUser), userHandler.DeleteUser)
		}

		protected.GET("/dashboard", middleware.RequireRead(policy, rbac.ResourceDashboard), reportHandler.GetDashboard)

		// Report endpoints
		reports := protected.Group("/report")
		reports.Use(middleware.RequireRead(policy, rbac.ResourceReport))
		{
			reports.GET("/assets-by-location", reportHandler.AssetsByLocation)
			reports.GET("/assets-by-condition", reportHandler.AssetsByCondition)
			reports.GET("/assets-in-out", reportHandler.AssetsInOut)
			reports.GET("/assets-by-location/export", reportHandler.ExportAssetsByLocation)
			reports.GET("/assets-by-condition/export", reportHandler.ExportAssetsByCondition)
			reports.GET("/assets-in-out/export", reportHandler.ExportAssetsInOut)
		}

		protected.GET("/audit-logs", middleware.RequireAdmin(policy, rbac.ResourceAuditLog), reportHandler.ListAuditLogs)
	}

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// requestIDMiddleware propagates or assigns an X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		)
	}
}

// corsMiddleware adds CORS headers for the configured origins. "*" (or an
// empty list) allows any origin without credentials; explicitly listed
// origins are echoed back with credentials allowed.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
			continue
		}
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && origins[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
