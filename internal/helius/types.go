// =================================
// File: internal/helius/types.go
// =================================
package helius

import (
	"math"
	"strconv"
	"time"
)

// LamportsPerSOL is the fixed scale factor between lamports and SOL.
const LamportsPerSOL = 1_000_000_000

// EnhancedTransaction is a single parsed transaction from the Helius
// enhanced-transactions API.
type EnhancedTransaction struct {
	Description      string           `json:"description"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	Fee              int64            `json:"fee"` // lamports
	FeePayer         string           `json:"feePayer"`
	Signature        string           `json:"signature"`
	Slot             int64            `json:"slot"`
	Timestamp        int64            `json:"timestamp"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	TransactionError *TxError         `json:"transactionError"`
}

// NativeTransfer is a SOL movement between two accounts.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

// TokenTransfer is a fungible-token movement between two accounts.
type TokenTransfer struct {
	FromUserAccount  string         `json:"fromUserAccount"`
	ToUserAccount    string         `json:"toUserAccount"`
	FromTokenAccount string         `json:"fromTokenAccount"`
	ToTokenAccount   string         `json:"toTokenAccount"`
	Mint             string         `json:"mint"`
	RawTokenAmount   RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount holds a raw token amount with its decimals.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}

// TxError represents a transaction-level error.
type TxError struct {
	Error string `json:"error"`
}

// UnixSeconds normalizes the transaction timestamp to seconds. Some provider
// variants emit milliseconds; anything above 1e12 is treated as such.
func (tx *EnhancedTransaction) UnixSeconds() int64 {
	if tx.Timestamp > 1_000_000_000_000 {
		return tx.Timestamp / 1000
	}
	return tx.Timestamp
}

// Time returns the normalized transaction time.
func (tx *EnhancedTransaction) Time() time.Time {
	return time.Unix(tx.UnixSeconds(), 0).UTC()
}

// FeeSOL returns the network fee scaled to SOL.
func (tx *EnhancedTransaction) FeeSOL() float64 {
	return float64(tx.Fee) / LamportsPerSOL
}

// NativeOutflow sums lamports sent from the wallet within this transaction,
// returned in SOL.
func (tx *EnhancedTransaction) NativeOutflow(wallet string) float64 {
	var total int64
	for _, nt := range tx.NativeTransfers {
		if nt.FromUserAccount == wallet {
			total += nt.Amount
		}
	}
	return float64(total) / LamportsPerSOL
}

// NativeInflow sums lamports received by the wallet within this transaction,
// returned in SOL.
func (tx *EnhancedTransaction) NativeInflow(wallet string) float64 {
	var total int64
	for _, nt := range tx.NativeTransfers {
		if nt.ToUserAccount == wallet {
			total += nt.Amount
		}
	}
	return float64(total) / LamportsPerSOL
}

// Amount returns the transfer quantity scaled by its decimals. A malformed or
// missing raw amount yields 0 rather than an error; a single bad record must
// not sink a whole report.
func (tt *TokenTransfer) Amount() float64 {
	raw, err := strconv.ParseFloat(tt.RawTokenAmount.TokenAmount, 64)
	if err != nil {
		return 0
	}
	return raw / math.Pow10(tt.RawTokenAmount.Decimals)
}
