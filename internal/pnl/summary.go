// =================================
// File: internal/pnl/summary.go
// =================================
package pnl

// WalletSummary is the wallet-level reduction over finalized token positions
// plus the independently fetched balance. It carries nothing that cannot be
// re-derived from those inputs.
type WalletSummary struct {
	WalletAddress     string  `json:"wallet_address"`
	NativeBalance     float64 `json:"native_balance"` // SOL, current
	TotalRealizedPnl  float64 `json:"total_realized_pnl"`
	WinRate           float64 `json:"win_rate"`        // % of nonzero positions in profit
	AverageWinPct     float64 `json:"average_win_pct"` // mean delta % over winners
	TotalRealizedLoss float64 `json:"total_realized_loss"`
	BalanceChangePct  float64 `json:"balance_change_pct"`
	LookbackDays      int     `json:"lookback_days"`
	PositionCount     int     `json:"position_count"`
}

// Summarize reduces a finalized position set into wallet-level metrics.
// Every ratio is guarded: degenerate denominators yield 0, never a panic.
func Summarize(wallet string, positions map[string]*TokenPosition, nativeBalance float64, lookbackDays int) WalletSummary {
	summary := WalletSummary{
		WalletAddress: wallet,
		NativeBalance: nativeBalance,
		LookbackDays:  lookbackDays,
		PositionCount: len(positions),
	}

	var winners, nonzero int
	var winPctSum float64

	for _, pos := range positions {
		summary.TotalRealizedPnl += pos.RealizedDelta

		if pos.RealizedDelta > 0 {
			winners++
			winPctSum += pos.RealizedDeltaPct
		}
		if pos.RealizedDelta != 0 {
			nonzero++
		}
		if pos.RealizedDelta < 0 {
			summary.TotalRealizedLoss += pos.RealizedDelta
		}
	}

	if nonzero > 0 {
		summary.WinRate = float64(winners) / float64(nonzero) * 100
	}
	if winners > 0 {
		summary.AverageWinPct = winPctSum / float64(winners)
	}

	if base := nativeBalance - summary.TotalRealizedPnl; base != 0 {
		summary.BalanceChangePct = summary.TotalRealizedPnl / base * 100
	}

	return summary
}
