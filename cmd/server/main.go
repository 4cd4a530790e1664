package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/toto04/homescraper/internal/config"
	"github.com/toto04/homescraper/internal/handler"
	"github.com/toto04/homescraper/internal/repository"
	"github.com/toto04/homescraper/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("Homescraper")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.OpenAI.EmbeddingDimensions,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")
	if repo.EmbeddingsEnabled() {
		log.Println("✅ pgvector available, similarity search enabled")
	} else {
		log.Println("⚠️  pgvector unavailable, similarity search disabled")
	}

	// Initialize model clients
	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI)
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Model: %s", cfg.OpenAI.Model)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("⚠️  OpenAI is disabled - field extraction will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	var geoClient service.GeoClient = service.NewGoogleClient(&cfg.Google)
	if cfg.Google.Enabled {
		log.Println("✅ Google Maps client initialized")
	} else {
		log.Println("⚠️  Google Maps is disabled - geodata enrichment will not work")
		log.Println("   Set GOOGLE_API_KEY environment variable to enable it")
	}

	// Initialize services
	extractor := service.NewExtractor(aiClient, cfg.Pipeline.ExtractStaggerMS)
	enricher := service.NewEnricher(geoClient, cfg.Pipeline.GeoMaxWorkers)
	pipeline := service.NewPipeline(repo, extractor, enricher, aiClient)
	listingService := service.NewListingService(repo)

	log.Println("✅ Services initialized")

	// Initialize handlers
	listingHandler := handler.NewListingHandler(listingService)
	actionHandler := handler.NewActionHandler(listingService)
	adminHandler := handler.NewAdminHandler(pipeline, repo, listingService)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", adminHandler.Health)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/health", adminHandler.Health)

		api.GET("/listings", listingHandler.GetListings)
		api.GET("/listings/saved", listingHandler.GetSavedListings)
		api.GET("/listings/hidden", listingHandler.GetHiddenListings)
		api.GET("/listings/:id", listingHandler.GetListing)
		api.GET("/listings/:id/similar", listingHandler.GetSimilarListings)

		api.POST("/listings/:id/actions", actionHandler.ApplyAction)
		api.PUT("/listings/:id/notes", actionHandler.UpdateNotes)

		api.GET("/raw-listings", adminHandler.GetRawListings)
		api.GET("/processed-listings", adminHandler.GetProcessedListings)
		api.GET("/geodata", adminHandler.GetGeoData)
		api.GET("/stats", adminHandler.GetStats)

		api.POST("/parse", adminHandler.ParseHTML)
		api.POST("/import/rows", adminHandler.ImportRows)
		api.POST("/import/raw-listings", adminHandler.ImportRawListings)
		api.POST("/import/processed-listings", adminHandler.ImportProcessedListings)
		api.POST("/import/geodata", adminHandler.ImportGeoData)
		api.POST("/pipeline/run", adminHandler.RunPipeline)

		api.DELETE("/data", adminHandler.ClearData)
	}

	// Serve the frontend build when a static directory is configured
	if cfg.Server.StaticDir != "" {
		router.Static("/app", cfg.Server.StaticDir)
		router.StaticFile("/", cfg.Server.StaticDir+"/index.html")
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
