// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-wallet-report/internal/config"
	"solana-wallet-report/internal/export"
	"solana-wallet-report/internal/helius"
	"solana-wallet-report/internal/logger"
	"solana-wallet-report/internal/market"
)

// Runner is the application object: built once at startup from explicit
// configuration, owns every service, no module-level mutable state.
type Runner struct {
	logger     *logger.Logger
	config     *config.Config
	api        *tgbotapi.BotAPI
	handler    *Handler
	shutdownCh chan os.Signal
}

// NewRunner wires the full service graph from cfg and log. Each component
// gets its own component-tagged logger.
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	api.Debug = cfg.TelegramDebug
	log.Info("🤖 Authorized on Telegram", zap.String("username", api.Self.UserName))

	heliusClient := helius.NewClient(helius.Options{
		APIKey:   cfg.HeliusAPIKey,
		BaseURL:  cfg.HeliusBaseURL,
		RPCURL:   cfg.RPCURL,
		PageSize: cfg.PageSize,
		Retries:  cfg.Retries,
		Timeout:  time.Duration(cfg.HTTPTimeout) * time.Second,
	}, log.WithComponent("helius"))

	var enricher Enricher
	if cfg.MarketBaseURL != "" {
		enricher = market.NewClient(cfg.MarketAPIKey, cfg.MarketBaseURL,
			time.Duration(cfg.HTTPTimeout)*time.Second, log.WithComponent("market"))
	}

	service := NewReportService(
		heliusClient,
		enricher,
		export.NewReportExporter(log.WithComponent("export")),
		log,
	)

	var persona *PersonaChat
	if cfg.GroqAPIKey != "" {
		persona = NewPersonaChat(cfg, log.WithComponent("persona"))
	}

	handler := NewHandler(
		api,
		service,
		persona,
		cfg.RepliesPerSec,
		DefaultReportOptions(cfg.LookbackDays, cfg.MaxTransactions, cfg.OutputDir),
		log,
	)

	return &Runner{
		logger:     log,
		config:     cfg,
		api:        api,
		handler:    handler,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Run starts long polling and the health endpoint, blocking until the context
// is cancelled or a shutdown signal arrives.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	healthServer := r.newHealthServer()

	shutdown := NewShutdownHandler(r.logger.WithComponent("shutdown"), 15*time.Second)
	shutdown.AddFunc("telegram_polling", func() error {
		r.api.StopReceivingUpdates()
		return nil
	})
	shutdown.AddFunc("health_server", func() error {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return healthServer.Shutdown(shutdownCtx)
	})

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		r.logger.Info("🌐 Health endpoint listening",
			zap.Int("port", r.config.HealthPort))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		r.poll(gCtx)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdown.Shutdown(context.Background())
		return nil
	})

	err := g.Wait()
	r.logger.Info("✅ Bot stopped")
	return err
}

// poll consumes Telegram updates until the context ends. Updates are handled
// one at a time: one wallet analysis runs to completion before the next is
// considered.
func (r *Runner) poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.config.TelegramTimeout
	if u.Timeout <= 0 {
		u.Timeout = 60
	}

	updates := r.api.GetUpdatesChan(u)
	r.logger.Info("🚀 Polling for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.handler.HandleUpdate(ctx, update)
		}
	}
}

func (r *Runner) newHealthServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", r.config.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Shutdown flushes the logger on the way out. Sync already swallows the usual
// stdout noise, anything left over is worth a line on stderr.
func (r *Runner) Shutdown() {
	r.logger.Info("👋 Bot shutting down gracefully")

	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
