package main

import (
	"contact-service/internal/handler"
	mid "contact-service/internal/middleware"
	"contact-service/internal/service"
	"contact-service/pkg/config"
	"contact-service/pkg/database"
	"contact-service/pkg/jwtutil"
	"contact-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (reads .env when present)
	appConfig, err := config.Load("contact-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting contact-service", appConfig.LogConfig()...)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)
	log.Info("JWT utility initialized", zap.Bool("auth_required", appConfig.Auth.Required))

	// Initialize database
	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	services := service.New(db, appConfig.Import.DefaultCountryCode)
	h := handler.New(services, jwt, appConfig.Import.MaxUploadBytes)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	handler.Configure(e)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())

	// Routes
	h.Register(e, mid.OrganizationMiddleware(jwt, appConfig.Auth.Required))

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
