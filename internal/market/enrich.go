// =================================
// File: internal/market/enrich.go
// =================================
package market

import (
	"context"

	"go.uber.org/zap"

	"solana-wallet-report/internal/pnl"
)

// Enrich decorates finalized positions with symbols and entry/exit/current
// market caps. Lookups run one token at a time; each failure is logged and
// leaves that field zero. PnL numbers are never touched.
func (c *Client) Enrich(ctx context.Context, positions map[string]*pnl.TokenPosition) {
	if c.baseURL == "" {
		return
	}

	for mint, pos := range positions {
		overview, err := c.TokenOverview(ctx, mint)
		if err != nil {
			c.logger.Warn("⚠️ Token overview lookup failed",
				zap.String("mint", mint), zap.Error(err))
		} else {
			pos.Symbol = overview.Symbol
			pos.CurrentMarketCap = overview.MarketCap
		}

		if pos.FirstBuyAt != nil {
			mc, err := c.MarketCapAt(ctx, mint, *pos.FirstBuyAt)
			if err != nil {
				c.logger.Warn("⚠️ Entry market cap lookup failed",
					zap.String("mint", mint), zap.Error(err))
			} else {
				pos.EntryMarketCap = mc
			}
		}

		if pos.LastSellAt != nil {
			mc, err := c.MarketCapAt(ctx, mint, *pos.LastSellAt)
			if err != nil {
				c.logger.Warn("⚠️ Exit market cap lookup failed",
					zap.String("mint", mint), zap.Error(err))
			} else {
				pos.ExitMarketCap = mc
			}
		}
	}
}
