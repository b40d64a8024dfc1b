package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/krishmajumdar12/Leaps-sub000/internal/api"
	"github.com/krishmajumdar12/Leaps-sub000/internal/config"
	"github.com/krishmajumdar12/Leaps-sub000/internal/realtime"
	"github.com/krishmajumdar12/Leaps-sub000/internal/repository"
	"github.com/krishmajumdar12/Leaps-sub000/internal/service"
	"github.com/krishmajumdar12/Leaps-sub000/pkg/logging"
)

func main() {
	logging.Setup()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		slog.Error("failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Start the chat relay hub
	hub := realtime.NewHub(svc)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)
	router.GET("/ws", realtime.ServeWS(hub, []byte(cfg.Auth.JWTSecret)))

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
