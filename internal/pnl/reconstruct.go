// =================================
// File: internal/pnl/reconstruct.go
// =================================
package pnl

import (
	"sort"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-wallet-report/internal/helius"
)

// WrappedSolMint is SOL in SPL-token clothing. Transfers of this mint are
// currency wrapping, not a token position.
var WrappedSolMint = solana.MPK("So11111111111111111111111111111111111111112")

// Reconstructor rebuilds per-token buy/sell activity for one wallet from its
// transaction history.
type Reconstructor struct {
	wallet string
	logger *zap.Logger
}

func NewReconstructor(wallet string, logger *zap.Logger) *Reconstructor {
	return &Reconstructor{wallet: wallet, logger: logger}
}

// Reconstruct walks the transactions in chronological ascending order and
// returns one finalized TokenPosition per mint the wallet traded. The
// provider returns newest-first, so the input is sorted before processing;
// first-buy/last-sell stamps depend on it.
func (r *Reconstructor) Reconstruct(transactions []helius.EnhancedTransaction) map[string]*TokenPosition {
	txs := make([]helius.EnhancedTransaction, len(transactions))
	copy(txs, transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].UnixSeconds() < txs[j].UnixSeconds()
	})

	positions := make(map[string]*TokenPosition)
	for i := range txs {
		r.processTransaction(&txs[i], positions)
	}

	for _, pos := range positions {
		pos.Finalize()
	}

	r.logger.Debug("Reconstructed token positions",
		zap.String("wallet", r.wallet),
		zap.Int("transactions", len(txs)),
		zap.Int("positions", len(positions)))

	return positions
}

// processTransaction attributes one transaction's native flows and fee to the
// token positions it touches.
func (r *Reconstructor) processTransaction(tx *helius.EnhancedTransaction, positions map[string]*TokenPosition) {
	nativeOut := tx.NativeOutflow(r.wallet)
	nativeIn := tx.NativeInflow(r.wallet)

	// Per-mint token amounts moved in each direction within this transaction.
	// Totals, not per-instruction events: one logical swap often shows up as
	// several low-level transfers and must count as one trade.
	buyAmounts := make(map[string]float64)
	sellAmounts := make(map[string]float64)

	for i := range tx.TokenTransfers {
		tt := &tx.TokenTransfers[i]
		amount := tt.Amount()

		if tt.Mint == WrappedSolMint.String() {
			// wSOL moving is SOL moving.
			switch r.wallet {
			case tt.FromUserAccount:
				nativeOut += amount
			case tt.ToUserAccount:
				nativeIn += amount
			}
			continue
		}

		switch r.wallet {
		case tt.ToUserAccount:
			buyAmounts[tt.Mint] += amount
		case tt.FromUserAccount:
			sellAmounts[tt.Mint] += amount
		default:
			// Transfer between third parties, nothing to attribute.
		}
	}

	if len(buyAmounts) == 0 && len(sellAmounts) == 0 {
		return
	}

	ts := tx.Time()

	var totalBuy, totalSell float64
	for _, a := range buyAmounts {
		totalBuy += a
	}
	for _, a := range sellAmounts {
		totalSell += a
	}

	for mint, amount := range buyAmounts {
		pos := r.ensurePosition(positions, mint)
		pos.SpentNative += nativeOut * apportionShare(amount, totalBuy, len(buyAmounts))
		pos.BuyCount++
		pos.TokenInflow += amount
		if pos.FirstBuyAt == nil {
			t := ts
			pos.FirstBuyAt = &t
		}
	}

	for mint, amount := range sellAmounts {
		pos := r.ensurePosition(positions, mint)
		pos.EarnedNative += nativeIn * apportionShare(amount, totalSell, len(sellAmounts))
		pos.SellCount++
		pos.TokenOutflow += amount
		t := ts
		pos.LastSellAt = &t
	}

	r.attributeFee(tx, positions, buyAmounts, sellAmounts)
}

// attributeFee spreads the transaction fee across the mints touched, by each
// mint's share of the total token amount moved, or in full when only one mint
// is involved.
func (r *Reconstructor) attributeFee(tx *helius.EnhancedTransaction, positions map[string]*TokenPosition, buyAmounts, sellAmounts map[string]float64) {
	touched := make(map[string]float64)
	for mint, a := range buyAmounts {
		touched[mint] += a
	}
	for mint, a := range sellAmounts {
		touched[mint] += a
	}

	feeSOL := tx.FeeSOL()
	if feeSOL == 0 || len(touched) == 0 {
		return
	}

	var total float64
	for _, a := range touched {
		total += a
	}

	for mint, amount := range touched {
		positions[mint].AccumulatedFee += feeSOL * apportionShare(amount, total, len(touched))
	}
}

// apportionShare returns the fraction of a transaction-level amount that one
// mint's transfers earn. A lone mint always takes the whole amount, even when
// its token quantity parsed to zero.
func apportionShare(amount, total float64, mints int) float64 {
	if mints == 1 {
		return 1
	}
	if total <= 0 {
		return 0
	}
	return amount / total
}

func (r *Reconstructor) ensurePosition(positions map[string]*TokenPosition, mint string) *TokenPosition {
	pos, ok := positions[mint]
	if !ok {
		pos = &TokenPosition{Mint: mint}
		positions[mint] = pos
	}
	return pos
}
