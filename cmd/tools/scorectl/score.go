package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ats-scoring/internal/app"
	"ats-scoring/internal/downstream"
	"ats-scoring/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <applicationId>",
	Short: "Compute and persist the score of one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd.Context(), func(ctx context.Context, o *scoring.Orchestrator, _ *app.Dependencies) error {
			score, err := o.ScoreApplication(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <applicationId>",
	Short: "Print the persisted score of one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd.Context(), func(ctx context.Context, o *scoring.Orchestrator, _ *app.Dependencies) error {
			score, err := o.GetScore(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score)
		})
	},
}

var rescoreCmd = &cobra.Command{
	Use:   "rescore <requisitionId>",
	Short: "Rescore every in-pipeline application of a requisition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd.Context(), func(ctx context.Context, o *scoring.Orchestrator, _ *app.Dependencies) error {
			batch, err := o.RescoreRequisition(ctx, args[0])
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), batch); err != nil {
				return err
			}
			if len(batch.Failed) > 0 {
				return fmt.Errorf("%d of %d applications failed to score", len(batch.Failed), batch.Total)
			}
			return nil
		})
	},
}

var evictCmd = &cobra.Command{
	Use:   "evict <applicationId>...",
	Short: "Drop cached scores so the next read goes to Postgres",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd.Context(), func(ctx context.Context, _ *scoring.Orchestrator, deps *app.Dependencies) error {
			cache := downstream.NewScoreCache(deps.Redis.Client, 0)
			if err := cache.Invalidate(ctx, args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d cached score(s)\n", len(args))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd, showCmd, rescoreCmd, evictCmd)
}
