package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/bricks-admin/dashboard/internal/api"
	"github.com/bricks-admin/dashboard/internal/config"
	"github.com/bricks-admin/dashboard/internal/repository"
	"github.com/bricks-admin/dashboard/internal/service"
	"github.com/bricks-admin/dashboard/internal/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.Log.Level)

	// Create repository
	var repo repository.Repository
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("using in-memory repository, data is lost on exit")
		repo = repository.NewMemoryRepository()
	default:
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to set up database: %v", err)
		}
		defer db.Close()
		repo = repository.NewPostgresRepository(db)
	}

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)

	if cfg.Auth.SeedAdminEmail != "" && cfg.Auth.SeedAdminPass != "" {
		root, err := svc.EnsureSuperAdmin(context.Background(), cfg.Auth.SeedAdminName, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPass)
		if err != nil {
			log.Fatalf("Failed to seed super admin: %v", err)
		}
		logger.Info("super admin %s ready", root.Email)
	}

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router, cfg.Server.AllowedOrigins)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
