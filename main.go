package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicfix-backend/config"
	"civicfix-backend/database"
	"civicfix-backend/gemini"
	"civicfix-backend/handlers"
	"civicfix-backend/llm"
	"civicfix-backend/metrics"
	"civicfix-backend/middleware"
	"civicfix-backend/openai"
	"civicfix-backend/rabbitmq"
	"civicfix-backend/service"
	"civicfix-backend/stubllm"
)

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Validate required configuration
	if !cfg.AIConfigured() {
		switch cfg.LLMProvider {
		case "openai":
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		default:
			log.Fatal("GEMINI_API_KEY environment variable is required")
		}
	}

	log.Info("Starting the civicfix backend...")

	// Register Prometheus collectors
	metrics.Register()

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.NewDatabase(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(context.Background())

	// Initialize LLM client
	var client llm.Client
	switch cfg.LLMProvider {
	case "openai":
		client = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout)
	case "stub":
		client = stubllm.NewClient()
	default:
		client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout)
	}
	log.Infof("Image classification via %s", client.SourceName())

	// Initialize RabbitMQ publisher (optional)
	var publisher service.EventPublisher
	if cfg.AMQPUrl != "" {
		pub, err := rabbitmq.NewPublisher(cfg.AMQPUrl, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, report events disabled")
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	// Initialize service and handlers
	intake := service.NewService(cfg, db, client, publisher)
	h := handlers.NewHandlers(cfg, intake, db)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", h.Root)
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimited := router.Group("/")
	rateLimited.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		rateLimited.POST("/analyze-image", h.AnalyzeImage)
	}

	admin := router.Group("/admin")
	{
		admin.GET("/reports", h.ListReports)
		admin.GET("/reports/:id", h.GetReport)
		admin.PATCH("/reports/:id", h.UpdateReportStatus)
		admin.DELETE("/reports/:id", h.DeleteReport)
		admin.GET("/stats", h.Stats)
		admin.POST("/seed", h.Seed)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
