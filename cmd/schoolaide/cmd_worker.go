package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/schoolaide/internal/queue"
	"github.com/user/schoolaide/internal/relay"
)

func init() {
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queue workers only; frames are pushed to the serve node over HTTP",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.HTTP.PushURL == "" {
		return fmt.Errorf("http.push_url is required in worker mode")
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

	gateway := relay.NewPushClient(cfg.HTTP.PushURL)
	rag := buildResponder(cfg, retriever, provider, gateway)

	worker := queue.NewWorker(cfg.Redis.Addr, 4, controller, rag)
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start queue worker: %w", err)
	}

	slog.Info("schoolaide worker started",
		"push_url", cfg.HTTP.PushURL,
		"source_bucket", cfg.SourceBucket,
		"extractor_mode", cfg.Extractor.Mode,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("shutting down", "signal", sig)
	worker.Shutdown()
	return nil
}
