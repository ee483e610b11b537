package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"authbridge/config"
	"authbridge/database"
	"authbridge/provider"
	"authbridge/routes"
	"authbridge/services"
	"authbridge/utils"
)

var db *gorm.DB

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found. Using default configuration.")
	}

	db, err = database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if !utils.EncryptionConfigured() {
		log.Fatal("ENCRYPTION_KEY must be set to a 32-byte value; tokens are stored encrypted")
	}

	validationResult := provider.ValidateOAuthConfig()
	if !validationResult.IsValid {
		log.Println("Warning: OAuth configuration has errors. Authorization flows will fail until fixed.")
	}

	client := provider.NewClient(provider.LoadConfigFromEnv())

	utils.InitAuditLog(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := services.NewSessionSweeper(db)
	go sweeper.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	routes.SetupRoutes(r, client)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Authorization broker listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := database.ShutdownDB(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited")
}
