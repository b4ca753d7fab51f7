// =================================
// File: internal/helius/client.go
// =================================
package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Options configures the Helius client.
type Options struct {
	APIKey   string
	BaseURL  string
	RPCURL   string
	PageSize int
	Retries  int
	Timeout  time.Duration
}

// Client talks to the Helius enhanced-transactions API and the standard
// Solana JSON-RPC endpoint behind it.
type Client struct {
	opts       Options
	httpClient *http.Client
	rpcClient  *rpc.Client
	logger     *zap.Logger
}

// FetchResult is the typed outcome of a transaction fetch. Partial data is a
// first-class state so the caller can tell "wallet has no activity" apart
// from "provider was unreachable halfway through".
type FetchResult struct {
	Transactions []EnhancedTransaction
	Partial      bool
	Warning      string
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		rpcClient:  rpc.New(opts.RPCURL),
		logger:     logger,
	}
}

// FetchTransactions retrieves up to maxCount transactions for a wallet,
// paginating newest-first with a signature cursor. The scan stops on a short
// page, on maxCount, or as soon as a record falls before the since cutoff.
func (c *Client) FetchTransactions(ctx context.Context, wallet string, maxCount int, since time.Time) (*FetchResult, error) {
	result := &FetchResult{}
	var beforeSig string

	for len(result.Transactions) < maxCount {
		txns, err := c.fetchPageWithRetry(ctx, wallet, beforeSig)
		if err != nil {
			if len(result.Transactions) == 0 {
				return nil, fmt.Errorf("fetching transactions for %s: %w", wallet, err)
			}
			// Keep what we already have and say so.
			result.Partial = true
			result.Warning = fmt.Sprintf("transaction history truncated after %d records: %v", len(result.Transactions), err)
			c.logger.Warn("⚠️ Pagination aborted, returning partial history",
				zap.String("wallet", wallet),
				zap.Int("fetched", len(result.Transactions)),
				zap.Error(err))
			return result, nil
		}

		if len(txns) == 0 {
			break
		}

		reachedCutoff := false
		for i := range txns {
			if txns[i].TransactionError != nil {
				continue
			}
			if !since.IsZero() && txns[i].Time().Before(since) {
				reachedCutoff = true
				break
			}
			result.Transactions = append(result.Transactions, txns[i])
			if len(result.Transactions) == maxCount {
				break
			}
		}

		c.logger.Debug("📡 Fetched transaction page",
			zap.String("wallet", wallet),
			zap.Int("page_records", len(txns)),
			zap.Int("total", len(result.Transactions)))

		if reachedCutoff || len(txns) < c.opts.PageSize {
			break
		}
		beforeSig = txns[len(txns)-1].Signature
	}

	return result, nil
}

// GetBalance returns the current native balance of the wallet in SOL.
func (c *Client) GetBalance(ctx context.Context, wallet string) (float64, error) {
	pubkey, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return 0, fmt.Errorf("invalid wallet address %q: %w", wallet, err)
	}

	out, err := c.rpcClient.GetBalance(ctx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("getBalance for %s: %w", wallet, err)
	}
	return float64(out.Value) / LamportsPerSOL, nil
}

// fetchPageWithRetry wraps a single page fetch in a bounded retry loop.
func (c *Client) fetchPageWithRetry(ctx context.Context, wallet, beforeSig string) ([]EnhancedTransaction, error) {
	op := func() ([]EnhancedTransaction, error) {
		return c.fetchPage(ctx, wallet, beforeSig)
	}

	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.opts.Retries)),
	)
}

func (c *Client) fetchPage(ctx context.Context, wallet, beforeSig string) ([]EnhancedTransaction, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.opts.BaseURL, wallet)

	params := url.Values{}
	params.Set("api-key", c.opts.APIKey)
	params.Set("limit", fmt.Sprintf("%d", c.opts.PageSize))
	if beforeSig != "" {
		params.Set("before", beforeSig)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("helius returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var txns []EnhancedTransaction
	if err := json.NewDecoder(resp.Body).Decode(&txns); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return txns, nil
}
