package export

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"solana-wallet-report/internal/pnl"
)

func generateTestReport() *Report {
	buyAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	sellAt := time.Date(2025, 6, 3, 15, 30, 0, 0, time.UTC)

	winner := &pnl.TokenPosition{
		Mint:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Symbol:       "USDC",
		SpentNative:  2,
		EarnedNative: 3,
		BuyCount:     1,
		SellCount:    1,
		TokenInflow:  10,
		TokenOutflow: 10,
		FirstBuyAt:   &buyAt,
		LastSellAt:   &sellAt,
	}
	winner.Finalize()

	loser := &pnl.TokenPosition{
		Mint:         "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		SpentNative:  5,
		EarnedNative: 1,
		BuyCount:     2,
		SellCount:    1,
	}
	loser.Finalize()

	positions := []*pnl.TokenPosition{loser, winner}
	byMint := map[string]*pnl.TokenPosition{winner.Mint: winner, loser.Mint: loser}

	return &Report{
		GeneratedAt: time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC),
		Summary:     pnl.Summarize("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", byMint, 12.5, 30),
		Positions:   positions,
	}
}

func TestReportExportCSV(t *testing.T) {
	logger := zap.NewNop()
	exporter := NewReportExporter(logger)
	tempDir := t.TempDir()

	report := generateTestReport()

	outputPath, err := exporter.ExportReport(report, ExportOptions{
		Format:    FormatCSV,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export report: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "wallet,7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU") {
		t.Error("Summary block missing wallet row")
	}
	if !strings.Contains(text, "USDC") {
		t.Error("Per-token table missing symbol")
	}
	if !strings.Contains(text, "https://solscan.io/token/") {
		t.Error("Per-token table missing explorer link")
	}

	t.Logf("Exported CSV to: %s (size: %d bytes)", outputPath, len(content))
}

func TestReportCSVSchemaAlignment(t *testing.T) {
	exporter := NewReportExporter(zap.NewNop())
	tempDir := t.TempDir()

	outputPath, err := exporter.ExportReport(generateTestReport(), ExportOptions{
		Format:    FormatCSV,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export report: %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	// Find the table header and check every data row matches its width.
	headerIdx := -1
	for i, rec := range records {
		if len(rec) > 0 && rec[0] == "token" {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		t.Fatal("Table header row not found")
	}

	width := len(records[headerIdx])
	if width != len(reportColumns) {
		t.Errorf("Header width %d does not match schema %d", width, len(reportColumns))
	}
	for _, rec := range records[headerIdx+1:] {
		if len(rec) != width {
			t.Errorf("Row width %d does not match header width %d", len(rec), width)
		}
	}

	// Positions must be ordered best-first.
	if records[headerIdx+1][0] != "USDC" {
		t.Errorf("Expected winner first, got %q", records[headerIdx+1][0])
	}
}

func TestReportZeroCellsStayExplicit(t *testing.T) {
	exporter := NewReportExporter(zap.NewNop())
	tempDir := t.TempDir()

	// Airdropped token: nothing spent, nothing enriched. A zero accounting
	// cell must print as a number; only enrichment cells may be blank.
	airdrop := &pnl.TokenPosition{
		Mint:         "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		EarnedNative: 1.5,
		SellCount:    1,
		TokenOutflow: 100,
	}
	airdrop.Finalize()

	report := &Report{
		GeneratedAt: time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC),
		Summary: pnl.Summarize("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
			map[string]*pnl.TokenPosition{airdrop.Mint: airdrop}, 12.5, 30),
		Positions: []*pnl.TokenPosition{airdrop},
	}

	outputPath, err := exporter.ExportReport(report, ExportOptions{
		Format:    FormatCSV,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export report: %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	headerIdx := -1
	for i, rec := range records {
		if len(rec) > 0 && rec[0] == "token" {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		t.Fatal("Table header row not found")
	}

	cols := make(map[string]int)
	for i, h := range records[headerIdx] {
		cols[h] = i
	}
	row := records[headerIdx+1]

	if got := row[cols["spent_sol"]]; got != "0.000000" {
		t.Errorf("Zero spent_sol rendered as %q, want 0.000000", got)
	}
	if got := row[cols["fees_sol"]]; got != "0.000000" {
		t.Errorf("Zero fees_sol rendered as %q, want 0.000000", got)
	}
	if got := row[cols["entry_mcap"]]; got != "" {
		t.Errorf("Missing entry_mcap rendered as %q, want empty", got)
	}
}

func TestReportExportJSON(t *testing.T) {
	exporter := NewReportExporter(zap.NewNop())
	tempDir := t.TempDir()

	outputPath, err := exporter.ExportReport(generateTestReport(), ExportOptions{
		Format:    FormatJSON,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export report: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}
	if len(content) == 0 {
		t.Error("Export file is empty")
	}
	if !strings.Contains(string(content), "\"total_realized_pnl\"") {
		t.Error("JSON export missing summary fields")
	}
}

func TestReportExportPartialWarning(t *testing.T) {
	exporter := NewReportExporter(zap.NewNop())
	tempDir := t.TempDir()

	report := generateTestReport()
	report.Partial = true
	report.Warning = "transaction history truncated after 200 records"

	outputPath, err := exporter.ExportReport(report, ExportOptions{
		Format:    FormatCSV,
		OutputDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to export report: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(content), "transaction history truncated") {
		t.Error("Partial-data warning missing from summary block")
	}
}

func TestReportExportUnsupportedFormat(t *testing.T) {
	exporter := NewReportExporter(zap.NewNop())

	_, err := exporter.ExportReport(generateTestReport(), ExportOptions{
		Format:    ExportFormat("xlsx"),
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}
