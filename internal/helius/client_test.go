package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

func testTx(sig string, ts int64) EnhancedTransaction {
	return EnhancedTransaction{Signature: sig, Timestamp: ts}
}

func newTestClient(baseURL string, pageSize int) *Client {
	return NewClient(Options{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		RPCURL:   baseURL,
		PageSize: pageSize,
		Retries:  1,
		Timeout:  time.Second,
	}, zap.NewNop())
}

func TestFetchTransactionsPaginates(t *testing.T) {
	pages := map[string][]EnhancedTransaction{
		"": {testTx("sig3", 300), testTx("sig2", 200)},
		"sig2": {testTx("sig1", 100)},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		before := r.URL.Query().Get("before")
		_ = json.NewEncoder(w).Encode(pages[before])
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	result, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Time{})
	require.NoError(t, err)

	assert.False(t, result.Partial)
	require.Len(t, result.Transactions, 3)
	assert.Equal(t, "sig3", result.Transactions[0].Signature)
	assert.Equal(t, "sig1", result.Transactions[2].Signature)
}

func TestFetchTransactionsStopsAtMaxCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := []EnhancedTransaction{testTx("a", 300), testTx("b", 200)}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	result, err := client.FetchTransactions(context.Background(), testWallet, 2, time.Time{})
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 2)
}

func TestFetchTransactionsLookbackCutoff(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		page := []EnhancedTransaction{testTx("new", 1000), testTx("old", 10)}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	result, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Unix(500, 0))
	require.NoError(t, err)

	// The scan must stop at the first record before the window, without
	// requesting another page.
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "new", result.Transactions[0].Signature)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchTransactionsSkipsFailedTxns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := []EnhancedTransaction{
			testTx("good", 300),
			{Signature: "bad", Timestamp: 200, TransactionError: &TxError{Error: "InstructionError"}},
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5)
	result, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "good", result.Transactions[0].Signature)
}

func TestFetchTransactionsFirstPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Time{})
	// Nothing fetched and the provider is down: that is an error, not an
	// empty history.
	require.Error(t, err)
}

func TestFetchTransactionsPartialOnLaterFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		page := []EnhancedTransaction{testTx("sig2", 200), testTx("sig1", 100)}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	result, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Time{})
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.NotEmpty(t, result.Warning)
	assert.Len(t, result.Transactions, 2)
}

func TestFetchTransactionsBadRequestNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid address"}`)
	}))
	defer server.Close()

	client := NewClient(Options{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		RPCURL:   server.URL,
		PageSize: 2,
		Retries:  3,
		Timeout:  time.Second,
	}, zap.NewNop())

	_, err := client.FetchTransactions(context.Background(), testWallet, 10, time.Time{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTimestampNormalization(t *testing.T) {
	sec := EnhancedTransaction{Timestamp: 1_700_000_000}
	ms := EnhancedTransaction{Timestamp: 1_700_000_000_123}

	assert.Equal(t, int64(1_700_000_000), sec.UnixSeconds())
	assert.Equal(t, int64(1_700_000_000), ms.UnixSeconds())
}

func TestTokenTransferAmountScaling(t *testing.T) {
	tt := TokenTransfer{RawTokenAmount: RawTokenAmount{TokenAmount: "1000", Decimals: 2}}
	assert.InDelta(t, 10.0, tt.Amount(), 1e-9)

	missingDecimals := TokenTransfer{RawTokenAmount: RawTokenAmount{TokenAmount: "1000"}}
	assert.InDelta(t, 1000.0, missingDecimals.Amount(), 1e-9)

	malformed := TokenTransfer{RawTokenAmount: RawTokenAmount{TokenAmount: "oops", Decimals: 4}}
	assert.Zero(t, malformed.Amount())
}
