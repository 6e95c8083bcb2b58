package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"docuchat-be/internal/config"
	"docuchat-be/pkg/database"
	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/indexing"
	"docuchat-be/pkg/llm/factory"
)

// Seeds the shared law corpus store and uploads every file from the
// given directory into it. Usage:
//
//	go run ./cmd/setupstore <corpus-dir>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	if len(os.Args) < 2 {
		color.Red("Usage: setupstore <corpus-dir>")
		os.Exit(1)
	}
	corpusDir := os.Args[1]

	cfg := config.Load()
	if cfg.Ai.LawMainStoreName == "" {
		color.Red("LAW_MAIN_STORE_NAME is not set")
		os.Exit(1)
	}

	indexer := buildIndexer(cfg)

	color.Cyan("🚀 Setting up law corpus store %q", cfg.Ai.LawMainStoreName)

	ctx := context.Background()
	storeRef, err := indexer.CreateOrGetStore(ctx, cfg.Ai.LawMainStoreName)
	if err != nil {
		color.Red("Failed to create store: %v", err)
		os.Exit(1)
	}
	color.Green("Store ready: %s", storeRef)

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		color.Red("Failed to read corpus dir: %v", err)
		os.Exit(1)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(corpusDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			color.Red("Skipping %s: %v", entry.Name(), err)
			continue
		}

		color.Yellow("Uploading %s (%d bytes)...", entry.Name(), len(data))
		if err := indexer.Upload(ctx, storeRef, data, entry.Name()); err != nil {
			color.Red("Upload failed for %s: %v", entry.Name(), err)
			continue
		}
		uploaded++
	}

	color.Green("✅ Done: %d/%d files uploaded to %s", uploaded, len(entries), storeRef)
}

func buildIndexer(cfg *config.Config) indexing.Service {
	if cfg.Ai.IndexingProvider != "pgvector" {
		return indexing.NewGoogleService(cfg.Keys.GoogleGemini, cfg.Ai.TextModel)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	generator, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.TextModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		color.Red("Failed to initialize LLM provider: %v", err)
		os.Exit(1)
	}

	return indexing.NewPgvectorService(db, embedder, generator)
}
