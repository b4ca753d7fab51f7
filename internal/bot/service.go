// =================================
// File: internal/bot/service.go
// =================================
package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-wallet-report/internal/export"
	"solana-wallet-report/internal/helius"
	"solana-wallet-report/internal/logger"
	"solana-wallet-report/internal/pnl"
	"solana-wallet-report/internal/wallet"
)

// TransactionSource is the slice of the Helius client the report pipeline
// needs. Narrowed for testability.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, wallet string, maxCount int, since time.Time) (*helius.FetchResult, error)
	GetBalance(ctx context.Context, wallet string) (float64, error)
}

// Enricher decorates positions with market data. Optional.
type Enricher interface {
	Enrich(ctx context.Context, positions map[string]*pnl.TokenPosition)
}

// Exporter renders the finished report to a file.
type Exporter interface {
	ExportReport(report *export.Report, options export.ExportOptions) (string, error)
}

// ReportOptions bounds one analysis run.
type ReportOptions struct {
	LookbackDays    int
	MaxTransactions int
	OutputDir       string
	Format          export.ExportFormat
}

// ReportService runs the full wallet analysis: fetch, reconstruct, summarize,
// enrich, export. One invocation is one synchronous, stateless computation.
type ReportService struct {
	source   TransactionSource
	enricher Enricher
	exporter Exporter
	logger   *logger.Logger
}

// ReportOutcome is what the chat layer gets back: the artifact path plus
// enough state to phrase an honest reply.
type ReportOutcome struct {
	Path         string
	Summary      pnl.WalletSummary
	Transactions int
	Positions    int
	Partial      bool
	Warning      string
}

func NewReportService(source TransactionSource, enricher Enricher, exporter Exporter, log *logger.Logger) *ReportService {
	return &ReportService{
		source:   source,
		enricher: enricher,
		exporter: exporter,
		logger:   log,
	}
}

// GenerateReport produces a trade report for one wallet address.
func (s *ReportService) GenerateReport(ctx context.Context, walletAddr string, opts ReportOptions) (*ReportOutcome, error) {
	if err := wallet.ValidateAddress(walletAddr); err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	defer s.logger.TrackPerformance("wallet_report")()

	log := s.logger.WithWallet(walletAddr)
	log.Info("📊 Starting wallet analysis", zap.Int("lookback_days", opts.LookbackDays))

	since := time.Now().AddDate(0, 0, -opts.LookbackDays)
	result, err := s.source.FetchTransactions(ctx, walletAddr, opts.MaxTransactions, since)
	if err != nil {
		return nil, fmt.Errorf("transaction history unavailable: %w", err)
	}

	// A wallet with no activity gets a chat reply, never an empty artifact.
	if len(result.Transactions) == 0 {
		log.Info("📭 No transactions in lookback window")
		return &ReportOutcome{
			Summary: pnl.Summarize(walletAddr, nil, 0, opts.LookbackDays),
		}, nil
	}

	balance, err := s.source.GetBalance(ctx, walletAddr)
	if err != nil {
		// The report survives without a live balance; the summary just
		// loses its balance-derived metrics.
		log.Warn("⚠️ Balance lookup failed, reporting zero balance", zap.Error(err))
		balance = 0
	}

	positions := pnl.NewReconstructor(walletAddr, log).Reconstruct(result.Transactions)
	summary := pnl.Summarize(walletAddr, positions, balance, opts.LookbackDays)

	if s.enricher != nil {
		s.enricher.Enrich(ctx, positions)
	}

	report := &export.Report{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Positions:   positionSlice(positions),
		Partial:     result.Partial,
		Warning:     result.Warning,
	}

	path, err := s.exporter.ExportReport(report, export.ExportOptions{
		Format:    opts.Format,
		OutputDir: opts.OutputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	log.Info("✅ Wallet analysis complete",
		zap.Int("transactions", len(result.Transactions)),
		zap.Int("positions", len(positions)),
		zap.Float64("total_pnl", summary.TotalRealizedPnl),
		zap.Bool("partial", result.Partial))

	return &ReportOutcome{
		Path:         path,
		Summary:      summary,
		Transactions: len(result.Transactions),
		Positions:    len(positions),
		Partial:      result.Partial,
		Warning:      result.Warning,
	}, nil
}

func positionSlice(positions map[string]*pnl.TokenPosition) []*pnl.TokenPosition {
	out := make([]*pnl.TokenPosition, 0, len(positions))
	for _, pos := range positions {
		out = append(out, pos)
	}
	return out
}
