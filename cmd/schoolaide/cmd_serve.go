package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/schoolaide/internal/queue"
	"github.com/user/schoolaide/internal/relay"
	"github.com/user/schoolaide/internal/webhook"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the full node: chat websocket, notification endpoints, and queue workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}

	retriever := buildRetriever(cfg)
	provider := buildProvider(cfg)

	controller, err := buildIntakeController(cfg, objStore, retriever, provider)
	if err != nil {
		return fmt.Errorf("build intake pipeline: %w", err)
	}

	// Connections live in this process, so the responder pushes through the
	// hub directly.
	hub := relay.NewHub()
	rag := buildResponder(cfg, retriever, provider, hub)

	dispatcher := queue.NewDispatcher(cfg.Redis.Addr)
	defer dispatcher.Close()

	chatRelay := relay.New(dispatcher)
	wsServer := relay.NewServer(chatRelay, hub)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Listen,
		Handler: webhook.NewServer(dispatcher, hub, wsServer),
	}

	worker := queue.NewWorker(cfg.Redis.Addr, 4, controller, rag)

	slog.Info("schoolaide started",
		"listen", cfg.HTTP.Listen,
		"source_bucket", cfg.SourceBucket,
		"destination_bucket", cfg.DestinationBucket,
		"knowledge_base_id", cfg.KnowledgeBaseID,
		"extractor_mode", cfg.Extractor.Mode,
		"llm_model", cfg.LLM.Model,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(); err != nil {
			return fmt.Errorf("queue worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			slog.Info("shutting down", "signal", sig)
		case <-gctx.Done():
		}
		worker.Shutdown()
		httpServer.Close()
		cancel()
		return nil
	})

	return g.Wait()
}
