package main

import (
	"blog-platform/internal/engagement"
	"blog-platform/internal/handler"
	"blog-platform/internal/middleware"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/client"
	"blog-platform/pkg/config"
	"blog-platform/pkg/database"
	"blog-platform/pkg/jwtutil"
	"blog-platform/pkg/logger"
	"blog-platform/pkg/task"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting blog platform service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Select the token signer from configuration
	signer, err := jwtutil.NewSigner(&cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token signer", zap.Error(err))
	}
	log.Info("Token signer initialized", zap.String("mode", cfg.JWT.Mode))

	// Engagement dedup policy is fixed at startup
	dedup, err := engagement.NewDeduplicator(database.GetDB(), cfg.Engagement)
	if err != nil {
		log.Fatal("Failed to initialize engagement deduplicator", zap.Error(err))
	}
	ranker := engagement.NewRanker(database.GetDB())

	// Optional redis cache for author enrichment
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Info("Redis author cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Best-effort side-call runner and sibling service clients
	tasks := task.NewRunner(4, 256, cfg.Services.OutboundTimeout, log)
	defer tasks.Close()
	storage := client.NewStorageClient(cfg.Services.StorageURL, cfg.Services.OutboundTimeout)
	authors := client.NewAuthorClient(cfg.Services.AuthURL, cfg.Services.OutboundTimeout, rdb, cfg.Redis.CacheTTL)

	h := handler.New(cfg, signer, dedup, ranker, tasks, storage, authors)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log, cfg.IsProduction())

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no tenant context required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/.well-known/jwks.json", h.JWKS)

	// Authentication routes - tenant-scoped, no principal required
	auth := e.Group("/auth", middleware.TenantMiddleware)
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/oauth/login", h.OAuthLogin)
	auth.POST("/refresh", h.RefreshToken)

	// Public content routes - tenant-scoped, principal optional
	posts := e.Group("/api/posts", middleware.TenantMiddleware, middleware.OptionalAuthenticate(signer))
	posts.GET("", h.ListPosts)
	posts.GET("/:slug", h.GetPost)
	posts.POST("/:id/like", h.ToggleLike)

	// Author widgets degrade gracefully without a tenant
	e.GET("/api/users/:id/public", h.GetPublicProfile, middleware.OptionalTenantMiddleware)

	// Authenticated user routes
	users := e.Group("/api/users", middleware.TenantMiddleware, middleware.Authenticate(signer))
	users.GET("/profile", h.GetProfile)
	users.PATCH("/profile", h.UpdateProfile)
	users.POST("/change-password", h.ChangePassword)

	// Admin routes - role gate on top of authentication
	admin := e.Group("/api/admin", middleware.TenantMiddleware, middleware.Authenticate(signer), middleware.RequireAdmin)
	admin.GET("/tenant", h.GetCurrentTenant)
	admin.POST("/posts", h.CreatePost)
	admin.DELETE("/posts/:id", h.DeletePost)
	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users/:id/role", h.UpdateUserRole)
	admin.PATCH("/users/:id/status", h.UpdateUserStatus)
	admin.DELETE("/users/:id", h.DeleteUser)

	// Super-admin tenant lifecycle - gated on the process-wide key
	tenants := e.Group("/admin/tenants", middleware.SuperAdmin(cfg.Auth.SuperAdminKey))
	tenants.POST("", h.CreateTenant)
	tenants.PATCH("/:id", h.UpdateTenant)

	// Internal endpoints - reachable only from inside the mesh
	internal := e.Group("/internal", middleware.InternalOnly)
	internal.GET("/users/:id", h.GetUserInternal)
	internal.POST("/users/batch", h.BatchUsers)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
