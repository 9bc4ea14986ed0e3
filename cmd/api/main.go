// cmd/api/main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dimitrisavellas/trivia-game/internal/config"
	"github.com/dimitrisavellas/trivia-game/internal/game"
	"github.com/dimitrisavellas/trivia-game/internal/handlers"
	"github.com/dimitrisavellas/trivia-game/internal/repository"
	"github.com/dimitrisavellas/trivia-game/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	// Initialize database
	db, err := repository.NewDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	questionRepo := repository.NewQuestionRepository(db)
	for _, difficulty := range cfg.Game.Difficulties {
		count, err := questionRepo.CountByDifficulty(difficulty)
		if err != nil {
			logrus.Fatalf("Failed to inspect question bank: %v", err)
		}
		logrus.WithFields(logrus.Fields{"difficulty": difficulty, "questions": count}).Info("question bank")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize room registry; the hub fans session events out
	registry := game.NewRegistry(game.Settings{
		MaxTeams:     cfg.Game.MaxTeams,
		Rounds:       cfg.Game.DefaultRounds,
		TurnTimeout:  cfg.Game.TurnTimeout,
		Difficulties: cfg.Game.Difficulties,
	}, cfg.Game.IdleRoomTimeout, questionRepo, hub)
	registry.StartEvictionLoop(cfg.Game.EvictInterval)

	// Initialize handlers
	httpHandler := handlers.NewHTTPHandler(registry, hub)
	gameHandler := handlers.NewGameHandler(registry, hub)
	wsHandler := handlers.NewWebSocketHandler(hub, gameHandler)

	// Setup Gin router
	router := gin.Default()
	httpHandler.RegisterRoutes(router)
	wsHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	registry.Stop()

	// Give 5 seconds for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
