// Package main provides the MCP server entry point for document chat.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/docchat-server/internal/chat"
	"github.com/bull/docchat-server/internal/chunker"
	"github.com/bull/docchat-server/internal/config"
	"github.com/bull/docchat-server/internal/embedding"
	"github.com/bull/docchat-server/internal/ingest"
	"github.com/bull/docchat-server/internal/llm"
	mcpserver "github.com/bull/docchat-server/internal/mcp"
	"github.com/bull/docchat-server/internal/pipeline"
	"github.com/bull/docchat-server/internal/retriever"
	"github.com/bull/docchat-server/internal/store"
	"github.com/bull/docchat-server/internal/vectorstore"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Vector store
	vectors, err := vectorstore.New(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer vectors.Close()

	if err := vectors.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Catalog and conversation store
	catalog, err := store.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Verbose, nil)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer catalog.Close()

	// OpenAI-backed components
	openaiClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create OpenAI client: %v", err)
	}
	embedder := embedding.NewEmbedder(openaiClient, 0) // Use default batch size
	generator := llm.NewGenerator(openaiClient.Client(), cfg.Pipeline.Model, cfg.Pipeline.CallTimeout())

	// Wire the chat flow
	ret := retriever.New(embedder, vectors, nil)
	answerer := pipeline.New(generator, pipeline.Config{
		DraftTemperature:  cfg.Pipeline.DraftTemperature,
		RefineTemperature: cfg.Pipeline.RefineTemperature,
		RefineWithQuery:   cfg.Pipeline.RefineWithQueryEnabled(),
	}, nil)
	chatSvc := chat.New(ret, answerer, catalog, nil)

	ingester := ingest.New(
		chunker.New(chunker.WithChunkSize(cfg.Chunker.Size), chunker.WithOverlap(cfg.Chunker.OverlapChars())),
		embedder, vectors, catalog, nil,
	)

	server := mcpserver.NewServer(&mcpserver.Config{
		Chat:     chatSvc,
		Ingester: ingester,
		Store:    catalog,
		Vectors:  vectors,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(vectors, catalog))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)

	if cfg.Server.Mode == "http" {
		// HTTP mode: serve MCP over HTTP for remote clients
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: run MCP over stdin/stdout for local clients, with the
	// health endpoint in the background for local testing
	go func() {
		log.Printf("Starting health server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Println("Starting DocChat MCP Server (stdio mode)...")
	if err := server.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
