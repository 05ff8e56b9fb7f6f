// Command seeddirectory loads a JSON file of team records into the qdrant
// directory collection. Usage: seeddirectory teams.json
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"

	"opportunity-agent/internal/adapter/client"
	"opportunity-agent/internal/adapter/store"
	"opportunity-agent/internal/domain/entity"

	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/genai"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: seeddirectory <teams.json>")
	}
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	ctx := context.Background()

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("failed to read teams file: %v", err)
	}
	var teams []entity.DirectoryTeam
	if err := json.Unmarshal(raw, &teams); err != nil {
		log.Fatalf("failed to parse teams file: %v", err)
	}
	if len(teams) == 0 {
		log.Fatal("teams file is empty")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location: os.Getenv("GOOGLE_CLOUD_LOCATION"),
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		log.Fatalf("failed to init genai client: %v", err)
	}

	port, _ := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host: os.Getenv("QDRANT_HOST"),
		Port: port,
	})
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}

	embedder := client.NewEmbedder(genaiClient, "text-embedding-004")
	directory := store.NewQdrantDirectory(qClient, collectionName(), embedder)
	if err := directory.InitCollection(ctx, 768); err != nil {
		log.Fatalf("failed to init qdrant collection: %v", err)
	}

	for _, team := range teams {
		if err := directory.UpsertTeam(ctx, team); err != nil {
			log.Fatalf("failed to upsert team %q: %v", team.Name, err)
		}
		log.Printf("[SEED] upserted team %q (%s)", team.Name, team.Tower)
	}
	log.Printf("[SEED] done, %d teams loaded", len(teams))
}

func collectionName() string {
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		return v
	}
	return "team_directory"
}
