package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mannaza/mannaza/internal/api"
	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/extract"
	"github.com/mannaza/mannaza/internal/repository"
	"github.com/mannaza/mannaza/internal/service"
	"github.com/mannaza/mannaza/internal/web"
)

func main() {
	// Get Redis configuration
	redisConfig := config.GetRedisConfig()

	// Initialize the repository using the factory
	repo, err := repository.NewRepository(redisConfig)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	// Check if we're using a Redis repository, and if so, close it properly on exit
	if redisRepo, ok := repo.(interface{ Close() error }); ok {
		defer func() {
			if err := redisRepo.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}()
	}

	// The extractor is required; without it messages cannot be processed
	llmConfig := config.GetLLMConfig()
	if !llmConfig.IsLLMConfigValid() {
		log.Fatalf("LLM configuration is incomplete; set LLM_API_KEY")
	}
	extractor := extract.NewClient(llmConfig)

	// Initialize the service layer
	roomService := service.NewRoomService(repo, extractor, config.GetServiceConfig())

	// Set up the SSE hub and register it for room updates
	hub := web.NewSSEHub()
	roomService.RegisterUpdateCallback(hub.NotifyRoomUpdate)

	// Set up API routes
	mux := api.SetupRoutes(roomService)

	// Set up the event stream endpoint
	hub.SetupRoutes(mux)

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Configure the HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disable write timeout for SSE connections
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Printf("Starting mannaza server on port %s", port)
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until a signal is received or an error occurs
	select {
	case err := <-serverErrors:
		log.Fatalf("Error starting server: %v", err)

	case <-shutdown:
		log.Println("Shutting down server...")

		// Close SSE connections first so Shutdown does not wait on them
		hub.Shutdown()

		// Create a deadline to wait for
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			log.Fatalf("Error shutting down server: %v", err)
		}

		log.Println("Server gracefully stopped")
	}
}
