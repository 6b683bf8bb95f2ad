// Package main implements scorectl, the operator CLI for candidate scores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ats-scoring/internal/app"
	"ats-scoring/internal/common/config"
	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/scoring"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "scorectl",
	Short:         "Operate the candidate scoring engine",
	Long:          "scorectl scores applications, rescores requisitions, inspects persisted scores and validates criteria files outside of a workflow.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (default: configs/config.yaml lookup)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// withOrchestrator connects the datastores, runs fn and closes everything afterwards.
func withOrchestrator(ctx context.Context, fn func(ctx context.Context, o *scoring.Orchestrator, deps *app.Dependencies) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zapLog := logger.New(logLevel, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	deps, err := app.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	o, err := app.NewOrchestrator(cfg, deps, log)
	if err != nil {
		return err
	}
	return fn(ctx, o, deps)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
