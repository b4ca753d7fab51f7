// =================================
// File: internal/export/export.go
// =================================
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"solana-wallet-report/internal/pnl"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// Report is the full artifact handed to the renderer: the wallet summary plus
// its finalized per-token positions.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Summary     pnl.WalletSummary    `json:"summary"`
	Positions   []*pnl.TokenPosition `json:"positions"`
	Partial     bool                 `json:"partial,omitempty"`
	Warning     string               `json:"warning,omitempty"`
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format    ExportFormat
	OutputDir string
}

// ReportExporter renders wallet reports to spreadsheet files
type ReportExporter struct {
	logger *zap.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter(logger *zap.Logger) *ReportExporter {
	return &ReportExporter{
		logger: logger,
	}
}

// column binds one spreadsheet header to the formatter producing its cell.
// The table layout lives entirely in this schema; rows never touch positional
// indices.
type column struct {
	header string
	value  func(p *pnl.TokenPosition) string
}

var reportColumns = []column{
	{"token", tokenLabel},
	{"mint", func(p *pnl.TokenPosition) string { return p.Mint }},
	{"spent_sol", func(p *pnl.TokenPosition) string { return formatFloat(p.SpentNative) }},
	{"earned_sol", func(p *pnl.TokenPosition) string { return formatFloat(p.EarnedNative) }},
	{"realized_delta_sol", func(p *pnl.TokenPosition) string { return formatFloat(p.RealizedDelta) }},
	{"realized_delta_pct", func(p *pnl.TokenPosition) string { return formatPercent(p.RealizedDeltaPct) }},
	{"buys", func(p *pnl.TokenPosition) string { return fmt.Sprintf("%d", p.BuyCount) }},
	{"sells", func(p *pnl.TokenPosition) string { return fmt.Sprintf("%d", p.SellCount) }},
	{"first_buy", func(p *pnl.TokenPosition) string { return formatTime(p.FirstBuyAt) }},
	{"last_sell", func(p *pnl.TokenPosition) string { return formatTime(p.LastSellAt) }},
	{"holding_period", func(p *pnl.TokenPosition) string { return p.HoldingPeriod() }},
	{"token_in", func(p *pnl.TokenPosition) string { return formatFloat(p.TokenInflow) }},
	{"token_out", func(p *pnl.TokenPosition) string { return formatFloat(p.TokenOutflow) }},
	{"fees_sol", func(p *pnl.TokenPosition) string { return formatFloat(p.AccumulatedFee) }},
	{"entry_mcap", func(p *pnl.TokenPosition) string { return formatOptionalFloat(p.EntryMarketCap) }},
	{"exit_mcap", func(p *pnl.TokenPosition) string { return formatOptionalFloat(p.ExitMarketCap) }},
	{"current_mcap", func(p *pnl.TokenPosition) string { return formatOptionalFloat(p.CurrentMarketCap) }},
	{"solscan", func(p *pnl.TokenPosition) string { return "https://solscan.io/token/" + p.Mint }},
	{"birdeye", func(p *pnl.TokenPosition) string { return "https://birdeye.so/token/" + p.Mint }},
}

// ExportReport writes the report in the requested format and returns the path.
func (re *ReportExporter) ExportReport(report *Report, options ExportOptions) (string, error) {
	// Best positions first.
	sort.SliceStable(report.Positions, func(i, j int) bool {
		return report.Positions[i].RealizedDelta > report.Positions[j].RealizedDelta
	})

	filename := re.generateFilename(report, options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = re.exportToCSV(report, outputPath)
	case FormatJSON:
		err = re.exportToJSON(report, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	re.logger.Info("Report exported",
		zap.String("file", outputPath),
		zap.String("wallet", report.Summary.WalletAddress),
		zap.Int("positions", len(report.Positions)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// generateFilename creates a filename based on the wallet and export time
func (re *ReportExporter) generateFilename(report *Report, options ExportOptions) string {
	timestamp := report.GeneratedAt.Format("20060102_150405")

	prefix := "report"
	if addr := report.Summary.WalletAddress; len(addr) >= 8 {
		prefix += "_" + addr[:8]
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// exportToCSV writes the summary block followed by the per-token table.
func (re *ReportExporter) exportToCSV(report *Report, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	summary := report.Summary
	summaryRows := [][]string{
		{"wallet", summary.WalletAddress},
		{"sol_balance", formatFloat(summary.NativeBalance)},
		{"total_realized_pnl_sol", formatFloat(summary.TotalRealizedPnl)},
		{"win_rate_pct", formatPercent(summary.WinRate)},
		{"average_win_pct", formatPercent(summary.AverageWinPct)},
		{"total_realized_loss_sol", formatFloat(summary.TotalRealizedLoss)},
		{"balance_change_pct", formatPercent(summary.BalanceChangePct)},
		{"lookback_days", fmt.Sprintf("%d", summary.LookbackDays)},
		{"tokens_traded", fmt.Sprintf("%d", summary.PositionCount)},
	}
	if report.Partial {
		summaryRows = append(summaryRows, []string{"warning", report.Warning})
	}

	for _, row := range summaryRows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	if err := writer.Write([]string{""}); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	headers := make([]string, len(reportColumns))
	for i, col := range reportColumns {
		headers[i] = col.header
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pos := range report.Positions {
		row := make([]string, len(reportColumns))
		for i, col := range reportColumns {
			row[i] = col.value(pos)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write position row: %w", err)
		}
	}

	return nil
}

// exportToJSON writes the whole report as indented JSON.
func (re *ReportExporter) exportToJSON(report *Report, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// Helper functions for formatting
func tokenLabel(p *pnl.TokenPosition) string {
	if p.Symbol != "" {
		return p.Symbol
	}
	if len(p.Mint) > 8 {
		return p.Mint[:8]
	}
	return p.Mint
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.6f", f)
}

// formatOptionalFloat blanks zero values. Only for enrichment fields, where
// zero means the lookup never happened; accounting cells always print.
func formatOptionalFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return fmt.Sprintf("%.6f", f)
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
