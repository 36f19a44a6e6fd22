package main

import (
	"context"
	"fmt"
	"time"

	"github.com/user/schoolaide/internal/config"
	"github.com/user/schoolaide/internal/extract"
	"github.com/user/schoolaide/internal/intake"
	"github.com/user/schoolaide/internal/responder"
	"github.com/user/schoolaide/internal/retrieval"
	"github.com/user/schoolaide/internal/store"
	"github.com/user/schoolaide/internal/summarize"
	"github.com/user/schoolaide/internal/types"
	"github.com/user/schoolaide/pkg/llm"
	"github.com/user/schoolaide/pkg/llm/openai"
)

// buildStore connects to the object store, ensures the buckets exist, and
// applies the optional lifecycle expiration rules.
func buildStore(ctx context.Context, cfg *config.Config) (*store.MinioStore, error) {
	objStore, err := store.NewMinio(cfg)
	if err != nil {
		return nil, err
	}
	if err := objStore.EnsureBuckets(ctx, cfg.SourceBucket, cfg.DestinationBucket); err != nil {
		return nil, err
	}
	if cfg.Lifecycle.Enabled {
		if err := objStore.ApplyLifecycleRules(ctx, cfg.SourceBucket, cfg.Lifecycle.ExpirationDays); err != nil {
			return nil, err
		}
	}
	return objStore, nil
}

func buildExtractor(cfg *config.Config, objStore types.ObjectStore) (types.TextExtractor, error) {
	switch cfg.Extractor.Mode {
	case "remote":
		return extract.NewRemote(
			cfg.Extractor.BaseURL,
			time.Duration(cfg.Extractor.PollInterval),
			time.Duration(cfg.Extractor.PollTimeout),
		), nil
	case "local":
		return extract.NewPDF(objStore), nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", cfg.Extractor.Mode)
	}
}

func buildProvider(cfg *config.Config) llm.Provider {
	return openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		ReadTimeout: time.Duration(cfg.LLM.ReadTimeout),
	})
}

// buildIntakeController assembles the intake pipeline: summarizer, processor
// and retry controller.
func buildIntakeController(cfg *config.Config, objStore types.ObjectStore, retriever types.Retriever, provider llm.Provider) (*intake.Controller, error) {
	extractor, err := buildExtractor(cfg, objStore)
	if err != nil {
		return nil, err
	}
	budget, err := summarize.NewBudget(cfg.LLM.Model)
	if err != nil {
		return nil, err
	}
	summarizer := summarize.New(
		objStore,
		extractor,
		provider,
		budget,
		cfg.DestinationBucket,
		cfg.Summary.AnchorMarker,
		cfg.Summary.WordBudget,
	)
	processor := intake.NewProcessor(
		objStore,
		summarizer,
		retriever,
		cfg.SourceBucket,
		cfg.DestinationBucket,
		cfg.KnowledgeBaseID,
		cfg.DataSourceID,
	)
	return intake.NewController(processor, cfg.MaxRetries), nil
}

func buildResponder(cfg *config.Config, retriever types.Retriever, provider llm.Provider, gateway types.ConnectionGateway) *responder.Responder {
	return responder.New(
		retriever,
		provider,
		gateway,
		cfg.KnowledgeBaseID,
		responder.Persona{Name: cfg.Assistant.Name, School: cfg.Assistant.School},
	)
}

func buildRetriever(cfg *config.Config) types.Retriever {
	return retrieval.New(cfg.Retrieval.BaseURL)
}
