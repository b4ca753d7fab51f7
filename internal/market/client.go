// =================================
// File: internal/market/client.go
// =================================
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client fetches token metadata and market-capitalization data. Everything
// here is a best-effort decoration: a failed lookup degrades the report, it
// never fails the analysis.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Overview is the current-state snapshot for a token.
type Overview struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"mc"`
}

// HistoryPoint is one market-cap observation.
type HistoryPoint struct {
	UnixTime int64   `json:"unixTime"`
	Value    float64 `json:"value"`
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// TokenOverview returns the token's symbol and current market cap.
func (c *Client) TokenOverview(ctx context.Context, mint string) (*Overview, error) {
	var payload struct {
		Data Overview `json:"data"`
	}
	params := url.Values{}
	params.Set("address", mint)
	if err := c.get(ctx, "/defi/token_overview", params, &payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// MarketCapAt returns the market cap closest in time to target, scanning the
// history window around it. Nearest available point wins, before or after.
func (c *Client) MarketCapAt(ctx context.Context, mint string, target time.Time) (float64, error) {
	params := url.Values{}
	params.Set("address", mint)
	params.Set("time_from", fmt.Sprintf("%d", target.Add(-12*time.Hour).Unix()))
	params.Set("time_to", fmt.Sprintf("%d", target.Add(12*time.Hour).Unix()))

	var payload struct {
		Data struct {
			Items []HistoryPoint `json:"items"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/defi/history_mc", params, &payload); err != nil {
		return 0, err
	}

	point := nearestPoint(payload.Data.Items, target.Unix())
	if point == nil {
		return 0, nil
	}
	return point.Value, nil
}

// nearestPoint selects the observation whose timestamp is closest to target.
func nearestPoint(points []HistoryPoint, target int64) *HistoryPoint {
	var best *HistoryPoint
	var bestDist int64
	for i := range points {
		dist := points[i].UnixTime - target
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &points[i]
			bestDist = dist
		}
	}
	return best
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
