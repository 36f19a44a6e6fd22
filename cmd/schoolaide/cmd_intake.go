package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/schoolaide/internal/queue"
	"github.com/user/schoolaide/internal/types"
)

var intakeInline bool

func init() {
	intakeCmd.Flags().BoolVar(&intakeInline, "inline", false, "process in this process instead of enqueueing")
	rootCmd.AddCommand(intakeCmd)
}

var intakeCmd = &cobra.Command{
	Use:   "intake <message-id>",
	Short: "Trigger intake for one message at the incoming prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntake,
}

func runIntake(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()
	id := types.MessageID(args[0])

	if !intakeInline {
		dispatcher := queue.NewDispatcher(cfg.Redis.Addr)
		defer dispatcher.Close()
		if err := dispatcher.DispatchIntake(ctx, id); err != nil {
			return err
		}
		fmt.Printf("queued intake for %s\n", id)
		return nil
	}

	objStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}
	controller, err := buildIntakeController(cfg, objStore, buildRetriever(cfg), buildProvider(cfg))
	if err != nil {
		return fmt.Errorf("build intake pipeline: %w", err)
	}
	if err := controller.Handle(ctx, id); err != nil {
		return err
	}
	fmt.Printf("processed %s\n", id)
	return nil
}
