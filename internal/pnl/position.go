// =================================
// File: internal/pnl/position.go
// =================================
package pnl

import (
	"fmt"
	"time"
)

// TokenPosition accumulates per-token activity for a wallet across its
// transaction history. Created on first encounter of a mint, mutated while
// scanning, finalized once after the full scan.
type TokenPosition struct {
	Mint           string     `json:"mint"`
	Symbol         string     `json:"symbol,omitempty"`
	SpentNative    float64    `json:"spent_native"`  // SOL attributed to buys
	EarnedNative   float64    `json:"earned_native"` // SOL attributed to sells
	BuyCount       int        `json:"buy_count"`
	SellCount      int        `json:"sell_count"`
	TokenInflow    float64    `json:"token_inflow"`
	TokenOutflow   float64    `json:"token_outflow"`
	AccumulatedFee float64    `json:"accumulated_fee"` // SOL
	FirstBuyAt     *time.Time `json:"first_buy_at,omitempty"`
	LastSellAt     *time.Time `json:"last_sell_at,omitempty"`

	// Derived after the full scan.
	RealizedDelta    float64 `json:"realized_delta"`
	RealizedDeltaPct float64 `json:"realized_delta_pct"`

	// Market-data enrichment. Optional, zero when unavailable.
	EntryMarketCap   float64 `json:"entry_market_cap,omitempty"`
	ExitMarketCap    float64 `json:"exit_market_cap,omitempty"`
	CurrentMarketCap float64 `json:"current_market_cap,omitempty"`
}

// Finalize computes the derived PnL fields. A position that only earned
// (nothing spent) reports 0%, never a division blowup.
func (p *TokenPosition) Finalize() {
	p.RealizedDelta = p.EarnedNative - p.SpentNative
	if p.SpentNative != 0 {
		p.RealizedDeltaPct = p.RealizedDelta / p.SpentNative * 100
	} else {
		p.RealizedDeltaPct = 0
	}
}

// HoldingPeriod renders the span between the first buy and the last sell.
func (p *TokenPosition) HoldingPeriod() string {
	if p.FirstBuyAt == nil || p.LastSellAt == nil {
		return ""
	}
	return formatHoldTime(*p.FirstBuyAt, *p.LastSellAt)
}

// formatHoldTime renders a duration between two trades in compact form.
func formatHoldTime(buyTime, sellTime time.Time) string {
	duration := sellTime.Sub(buyTime)
	if duration < 0 {
		duration = 0
	}
	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
	days := int(duration.Hours() / 24)
	hours := int(duration.Hours()) % 24
	return fmt.Sprintf("%dd%dh", days, hours)
}
