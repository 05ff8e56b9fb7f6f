// Command checkconn probes every backing service the agent is configured to
// use and prints one OK/FAIL line per service. Exits non-zero if any
// configured service is unreachable.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"opportunity-agent/internal/adapter/client"
	"opportunity-agent/internal/adapter/store"

	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	failed := false
	report := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("FAIL  %-10s %v\n", name, err)
			return
		}
		fmt.Printf("OK    %s\n", name)
	}

	report("qdrant", checkQdrant(ctx))
	report("gemini", checkGemini(ctx))

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		report("postgres", checkPostgres(ctx, dsn))
	} else {
		fmt.Println("SKIP  postgres (DATABASE_URL not set)")
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		report("redis", checkRedis(ctx, addr))
	} else {
		fmt.Println("SKIP  redis (REDIS_ADDR not set)")
	}
	if endpoint := os.Getenv("BLOB_ENDPOINT"); endpoint != "" {
		report("blob", checkBlob(ctx, endpoint))
	} else {
		fmt.Println("SKIP  blob (BLOB_ENDPOINT not set)")
	}

	if failed {
		os.Exit(1)
	}
}

func checkQdrant(ctx context.Context) error {
	port, _ := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host: os.Getenv("QDRANT_HOST"),
		Port: port,
	})
	if err != nil {
		return err
	}
	_, err = qClient.HealthCheck(ctx)
	return err
}

func checkGemini(ctx context.Context) error {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location: os.Getenv("GOOGLE_CLOUD_LOCATION"),
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return err
	}
	embedder := client.NewEmbedder(genaiClient, "text-embedding-004")
	_, err = embedder.CreateEmbedding(ctx, "connectivity check")
	return err
}

func checkPostgres(ctx context.Context, dsn string) error {
	sink, err := store.NewPostgresSink(ctx, dsn)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Ping(ctx)
}

func checkRedis(ctx context.Context, addr string) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	return rdb.Ping(ctx).Err()
}

func checkBlob(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	// Any HTTP answer proves the endpoint is reachable; auth errors are a
	// configuration problem, not a connectivity one.
	return nil
}
