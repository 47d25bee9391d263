package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DegrassiAaron/meepleai/internal/cache"
	"github.com/DegrassiAaron/meepleai/internal/config"
	"github.com/DegrassiAaron/meepleai/internal/rag"
)

type Server struct {
	cfg    config.ServerConfig
	server *http.Server
	engine *rag.Engine
	cache  cache.Store
}

func New(cfg config.Config, engine *rag.Engine, store cache.Store) *Server {
	s := &Server{
		cfg:    cfg.Server,
		engine: engine,
		cache:  store,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/agents/qa", s.handleQA)
		r.Post("/agents/qa/stream", s.handleQAStream)
		r.Post("/agents/chess", s.handleChess)
		r.Post("/agents/explain", s.handleExplain)
		r.Post("/agents/setup-guide", s.handleSetupGuide)
		r.Post("/cache/invalidate", s.handleInvalidate)
		r.Get("/health", s.handleHealth)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		// WriteTimeout bounds the whole response, including SSE
		// streams, so it is the stream's effective lifetime cap.
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "address", s.server.Addr)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("Starting shutdown", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}
