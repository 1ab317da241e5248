package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/holi87/hardware-registry/internal/handler"
	"github.com/holi87/hardware-registry/internal/middleware"
	"github.com/holi87/hardware-registry/internal/model"
	"github.com/holi87/hardware-registry/pkg/config"
	"github.com/holi87/hardware-registry/pkg/database"
	"github.com/holi87/hardware-registry/pkg/jwtutil"
	"github.com/holi87/hardware-registry/pkg/logger"
	"github.com/holi87/hardware-registry/pkg/secretcrypt"
	"github.com/holi87/hardware-registry/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting hardware registry...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if _, err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.User{},
		&model.Location{},
		&model.UserRoot{},
		&model.Vlan{},
		&model.Device{},
		&model.Interface{},
		&model.Connection{},
		&model.WifiNetwork{},
		&model.Secret{},
	); err != nil {
		log.Fatal("Failed to migrate models", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize secret encryption
	if err := secretcrypt.Initialize(cfg.Crypto.EncryptionKey); err != nil {
		log.Fatal("Failed to initialize secret encryption", zap.Error(err))
	}
	handler.SetAdminResetKey(cfg.Admin.ResetKey)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/version", handler.Version)
	e.GET("/metrics", handler.MetricsHandler)

	// First-run setup
	setup := e.Group("/setup")
	setup.GET("/status", handler.SetupStatus)
	setup.POST("/admin", handler.CreateFirstAdmin)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)

	// API routes - all require authentication
	api := e.Group("", middleware.AuthMiddleware)
	api.GET("/auth/me", handler.Me)
	api.POST("/auth/change-password", handler.ChangePassword)
	api.GET("/auth/admin-check", handler.AdminCheck)

	// Root-scoped reads - grant on the root is enough
	api.GET("/roots", handler.ListRoots)
	api.GET("/locations/tree", handler.LocationsTree)
	api.GET("/devices", handler.ListDevices)
	api.GET("/devices/:id", handler.GetDevice)
	api.GET("/connections", handler.ListConnections)
	api.GET("/vlans", handler.ListVlans)
	api.GET("/wifi", handler.ListWifiNetworks)
	api.POST("/wifi/:id/reveal", handler.RevealWifiPassword)
	api.GET("/graph", handler.TopologyGraph)

	// Mutations and secrets are admin only
	admin := e.Group("", middleware.AuthMiddleware, middleware.RequireAdmin)
	admin.POST("/admin/reset-password", handler.ResetAdminPassword)

	admin.POST("/roots", handler.CreateRoot)
	admin.PATCH("/roots/:id", handler.UpdateRoot)
	admin.DELETE("/roots/:id", handler.DeleteRoot)

	admin.POST("/locations", handler.CreateLocation)
	admin.PATCH("/locations/:id", handler.UpdateLocation)
	admin.DELETE("/locations/:id", handler.DeleteLocation)

	admin.POST("/devices", handler.CreateDevice)
	admin.PATCH("/devices/:id", handler.UpdateDevice)
	admin.DELETE("/devices/:id", handler.DeleteDevice)
	admin.POST("/devices/:id/interfaces", handler.CreateInterface)

	admin.POST("/connections", handler.CreateConnection)

	admin.POST("/vlans", handler.CreateVlan)
	admin.PATCH("/vlans/:id", handler.UpdateVlan)
	admin.DELETE("/vlans/:id", handler.DeleteVlan)

	admin.POST("/wifi", handler.CreateWifiNetwork)
	admin.PATCH("/wifi/:id", handler.UpdateWifiNetwork)
	admin.DELETE("/wifi/:id", handler.DeleteWifiNetwork)

	admin.GET("/secrets", handler.ListSecrets)
	admin.POST("/secrets", handler.CreateSecret)
	admin.PATCH("/secrets/:id", handler.UpdateSecret)
	admin.POST("/secrets/:id/reveal", handler.RevealSecret)
	admin.DELETE("/secrets/:id", handler.DeleteSecret)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
