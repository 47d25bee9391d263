package main

import (
	"log"
	"log/slog"

	"github.com/DegrassiAaron/meepleai/internal/cache"
	"github.com/DegrassiAaron/meepleai/internal/catalog"
	"github.com/DegrassiAaron/meepleai/internal/config"
	"github.com/DegrassiAaron/meepleai/internal/embed"
	"github.com/DegrassiAaron/meepleai/internal/llm"
	"github.com/DegrassiAaron/meepleai/internal/rag"
	"github.com/DegrassiAaron/meepleai/internal/server"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	embedder, err := embed.NewOpenAI(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to create embedding provider: %v", err)
	}

	searcher, err := vectordb.NewQdrant(&cfg.Qdrant)
	if err != nil {
		log.Fatalf("failed to create vector search client: %v", err)
	}

	provider, err := llm.NewOpenAI(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to create LLM provider: %v", err)
	}

	store, err := cache.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("failed to create response cache: %v", err)
	}
	defer store.Close()

	games := catalog.NewStatic(&cfg.Games)

	engine := rag.New(embedder, searcher, provider, store, games, store.TTL())

	srv := server.New(*cfg, engine, store)
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
