package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"opportunity-agent/internal/adapter/api"
	"opportunity-agent/internal/adapter/client"
	"opportunity-agent/internal/adapter/store"
	"opportunity-agent/internal/domain/repository"
	"opportunity-agent/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	ctx := context.Background()

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	location := os.Getenv("GOOGLE_CLOUD_LOCATION")
	geminiModel := envOr("GEMINI_MODEL", "gemini-2.5-flash")
	embedModel := envOr("EMBED_MODEL", "text-embedding-004")

	qdrantHost := os.Getenv("QDRANT_HOST")
	qdrantPort, _ := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	collection := envOr("QDRANT_COLLECTION", "team_directory")

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		log.Fatalf("failed to init genai client: %v", err)
	}

	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host: qdrantHost,
		Port: qdrantPort,
	})
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}

	embedder := client.NewEmbedder(genaiClient, embedModel)
	analyzer := client.NewGeminiAnalyzer(genaiClient, geminiModel)

	directory := store.NewQdrantDirectory(qClient, collection, embedder)
	if err := directory.InitCollection(ctx, 768); err != nil {
		log.Fatalf("failed to init qdrant collection: %v", err)
	}

	// Optional capabilities. Each is enabled only when its configuration is
	// present; the pipeline degrades gracefully when they are absent.
	var sink repository.AnalysisSink
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		if pg, err := store.NewPostgresSink(ctx, dsn); err != nil {
			// Persistence is best effort end to end; an unreachable
			// database at boot must not take the analysis path down.
			log.Printf("[MAIN] postgres sink unavailable, persistence disabled: %v", err)
		} else {
			defer pg.Close()
			sink = pg
			log.Println("[MAIN] analysis persistence enabled")
		}
	} else {
		log.Println("[MAIN] DATABASE_URL not set, analysis persistence disabled")
	}

	var blobs repository.BlobStore
	if endpoint := os.Getenv("BLOB_ENDPOINT"); endpoint != "" {
		blobs = client.NewBlobClient(endpoint, os.Getenv("BLOB_SAS"))
		log.Println("[MAIN] PDF upload enabled")
	} else {
		log.Println("[MAIN] BLOB_ENDPOINT not set, PDF upload disabled")
	}

	var limiter repository.RequestLimiter
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		limit, _ := strconv.Atoi(envOr("RATE_LIMIT", "100"))
		limiter = store.NewRedisLimiter(rdb, limit)
		log.Println("[MAIN] rate limiting enabled")
	} else {
		log.Println("[MAIN] REDIS_ADDR not set, rate limiting disabled")
	}

	// Inject the adapters into the orchestration layer
	orchestrator := usecase.NewOrchestrator(directory, analyzer, sink, blobs, nil)

	app := fiber.New(fiber.Config{
		AppName: "Opportunity Agent",
	})

	handler := api.NewAnalyzeHandler(orchestrator, limiter)
	api.SetupRouter(app, handler)

	port := envOr("PORT", "8080")
	log.Printf("Opportunity Agent running on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
