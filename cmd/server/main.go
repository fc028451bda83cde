package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gopkg.in/yaml.v3"

	"github.com/fleetops/receipt-ocr-service/api"
	"github.com/fleetops/receipt-ocr-service/internal/ai"
	"github.com/fleetops/receipt-ocr-service/internal/auth"
	"github.com/fleetops/receipt-ocr-service/internal/db"
	"github.com/fleetops/receipt-ocr-service/internal/models"
	"github.com/fleetops/receipt-ocr-service/internal/ocr"
	"github.com/fleetops/receipt-ocr-service/internal/storage"
)

func main() {
	// Load .env if present (dev convenience, no error if missing)
	_ = godotenv.Load()

	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in extraction-only mode (no persistence)")
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Images will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The OCR engine is a hard dependency
	ocrClient := ocr.NewClient(config.OCR.BaseURL, time.Duration(config.OCR.TimeoutSeconds)*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ocrClient.Ping(ctx); err != nil {
		log.Fatalf("OCR engine not reachable at %s: %v", config.OCR.BaseURL, err)
	}
	log.Printf("OCR engine available at %s", config.OCR.BaseURL)

	// Optional AI category suggestions
	categorizer := ai.NewCategorizer(config.AI)
	if categorizer != nil {
		log.Println("AI category suggestions enabled")
	}

	// Create API handler
	handler := api.NewHandler(config, ocrClient, categorizer)
	router := handler.SetupRoutes()

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// CORS for the dashboard frontends
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(protectedRouter)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting Receipt OCR Service v%s on %s", api.Version, addr)
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login              - Authenticate", addr)
	log.Printf("  POST http://%s/api/process-receipt    - Process receipt image (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/receipts           - List receipts (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/receipt/{id}       - Get single receipt (requires JWT)", addr)
	log.Printf("  DELETE http://%s/api/receipt/{id}     - Delete receipt (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/stats              - Get monthly stats (requires JWT)", addr)
	log.Printf("  GET  http://%s/health                 - Health check", addr)

	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if baseURL := os.Getenv("OCR_BASE_URL"); baseURL != "" {
		config.OCR.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if config.OCR.BaseURL == "" {
		config.OCR.BaseURL = "http://localhost:8868"
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	return &config, nil
}
