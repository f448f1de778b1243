package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/modelmatrix/ava-console/internal/config"
	"github.com/modelmatrix/ava-console/internal/handler"
	"github.com/modelmatrix/ava-console/internal/handler/events"
	"github.com/modelmatrix/ava-console/internal/model/agent"
	batchService "github.com/modelmatrix/ava-console/internal/service/batch"
	"github.com/modelmatrix/ava-console/internal/service/conversation"
	sessionService "github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/internal/store"
	"github.com/modelmatrix/ava-console/internal/upstream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var port store.Port
	sqlite, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		log.Printf("warning: failed to open session store at %s: %v", cfg.Store.Path, err)
		log.Println("continuing with in-memory sessions only")
		port = store.NewMemory()
	} else {
		defer sqlite.Close()
		port = sqlite
	}

	hub := events.NewHub()
	sessions := sessionService.NewService(port, hub.Publish)

	client := upstream.NewClient(upstream.Config{
		ModelsURL:    cfg.Upstream.ModelsURL,
		WebhookURL:   cfg.Upstream.WebhookURL,
		TestCasesURL: cfg.Upstream.TestCasesURL,
		BatchURL:     cfg.Upstream.BatchURL,
		EvaluatorURL: cfg.Upstream.EvaluatorURL,
	}, &http.Client{Timeout: cfg.Upstream.Timeout})

	conversations := conversation.NewService(sessions, client)
	batch := batchService.NewService(client)
	agents := agent.NewMemoryStore(agent.Seed())

	router := handler.NewRouter(handler.Deps{
		Sessions:       sessions,
		Conversations:  conversations,
		Batch:          batch,
		Agents:         agents,
		Models:         client,
		Hub:            hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Ava console backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
