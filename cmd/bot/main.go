// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-wallet-report/internal/bot"
	"solana-wallet-report/internal/config"
	"solana-wallet-report/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Secrets come from .env in development; absence is fine in production
	// where the environment is provisioned externally.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("configs/config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("🚀 Starting wallet report bot")

	runner, err := bot.NewRunner(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}

	runner.Shutdown()
}
