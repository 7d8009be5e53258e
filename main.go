package main

import (
	"github.com/gin-gonic/gin"
	"nearbuy-api/config"
	"nearbuy-api/database"
	"nearbuy-api/log"
	"nearbuy-api/middleware"
	"nearbuy-api/routes"
	"nearbuy-api/services"
)

func main() {
	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Error.Fatal("Failed to connect to database: ", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Error.Fatal("Failed to migrate database: ", err)
	}

	if err := database.SeedData(db); err != nil {
		log.Warn.Printf("Failed to seed database: %v", err)
	}

	uploader, err := services.NewMinioUploader(cfg)
	if err != nil {
		log.Error.Fatal("Failed to initialize object storage: ", err)
	}

	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(routes.SetupCORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(120, 20))

	routes.SetupRoutes(router, db, cfg, uploader)

	log.Info.Printf("Starting NearBuy API server on port %s", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error.Fatal("Failed to start server: ", err)
	}
}
