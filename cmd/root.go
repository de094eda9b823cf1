package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sgshaji/PlanProof-sub000/internal/config"
	"github.com/sgshaji/PlanProof-sub000/internal/pipeline"
	"github.com/sgshaji/PlanProof-sub000/internal/resilience"
	"github.com/sgshaji/PlanProof-sub000/internal/resolution"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
	"github.com/sgshaji/PlanProof-sub000/pkg/resolver"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "planproof",
	Short: "Planning application validation engine",
	Long:  "Validates planning application documents against a rule catalogue, escalating unresolved fields to Claude and re-validating revisions by delta.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "postgres" {
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	}
	return store.NewSQLite(cfg.Store.SQLitePath)
}

// loadCatalogue loads and indexes the configured rule catalogue.
func loadCatalogue() (*rules.Catalogue, error) {
	return rules.Load(cfg.Rules.CataloguePath)
}

// buildPipeline wires the validation pipeline. The escalation gate is
// omitted when no API key is configured.
func buildPipeline(st store.Store, cat *rules.Catalogue) *pipeline.Pipeline {
	var gate *resolution.Gate
	if cfg.Resolver.Key != "" {
		client := resolver.NewClient(cfg.Resolver.Key,
			resolver.WithModel(cfg.Resolver.Model),
			resolver.WithMaxTokens(cfg.Resolver.MaxTokens))
		gate = resolution.NewGate(client, st,
			resolution.WithMaxCalls(cfg.Resolver.MaxCalls),
			resolution.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Resolver.RatePerSecond), cfg.Resolver.RateBurst)),
			resolution.WithRetry(resilience.FromSettings(
				cfg.Resolver.RetryMaxAttempts,
				cfg.Resolver.RetryBackoffMs,
				cfg.Resolver.RetryMaxWaitMs)))
	} else {
		zap.L().Warn("no resolver key configured, escalation disabled")
	}
	return pipeline.New(cat, st, gate, cfg.Batch.MaxConcurrentDocuments)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
