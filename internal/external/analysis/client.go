package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/pkg/httputil"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// Client handles communication with the market analysis service
// ⭐ SSOT: analysis service calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new analysis service client. Retry, circuit breaking
// and rate limiting are configured on the injected httputil.Client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// postJSON posts a request and decodes the JSON response into out
func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) error {
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+path, body)
	if err != nil {
		return &contracts.ExternalServiceError{Service: "analysis", Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &contracts.ExternalServiceError{
			Service: "analysis",
			Op:      op,
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &contracts.ExternalServiceError{Service: "analysis", Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// getJSON fetches a path and decodes the JSON response into out
func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, c.baseURL+path)
	if err != nil {
		return &contracts.ExternalServiceError{Service: "analysis", Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &contracts.ExternalServiceError{
			Service: "analysis",
			Op:      op,
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &contracts.ExternalServiceError{Service: "analysis", Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// FetchPrices fetches OHLCV history for a ticker batch
func (c *Client) FetchPrices(ctx context.Context, tickers []string, period, interval string) (*FetchPricesResponse, error) {
	req := FetchPricesRequest{Tickers: tickers, Period: period, Interval: interval}

	var resp FetchPricesResponse
	if err := c.postJSON(ctx, "fetch-prices", "/api/market-data/fetch-prices", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchFundamentals fetches fundamental ratios for a ticker batch
func (c *Client) FetchFundamentals(ctx context.Context, tickers []string) (*FetchFundamentalsResponse, error) {
	req := FetchFundamentalsRequest{Tickers: tickers}

	var resp FetchFundamentalsResponse
	if err := c.postJSON(ctx, "fetch-fundamentals", "/api/market-data/fetch-fundamentals", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScoreFundamentalsBatch scores fundamentals across the four dimensions
func (c *Client) ScoreFundamentalsBatch(ctx context.Context, items []FundamentalData) (*ScoreBatchResponse, error) {
	req := ScoreBatchRequest{Items: items}

	var resp ScoreBatchResponse
	if err := c.postJSON(ctx, "score-batch", "/api/fundamentals/score-batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunTechnicalAnalysis runs indicator computation and pattern detection
// for one ticker's bars
func (c *Client) RunTechnicalAnalysis(ctx context.Context, req FullTechnicalRequest) (*FullTechnicalResponse, error) {
	var resp FullTechnicalResponse
	if err := c.postJSON(ctx, "full-analysis", "/api/technicals/full-analysis", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunSentimentPipeline collects and scores sentiment for a ticker batch
func (c *Client) RunSentimentPipeline(ctx context.Context, tickers []string, sources []contracts.SentimentSource) (*FullSentimentResponse, error) {
	req := FullSentimentRequest{
		Tickers:           tickers,
		MaxItemsPerSource: 30,
	}
	for _, s := range sources {
		req.Sources = append(req.Sources, string(s))
	}

	var resp FullSentimentResponse
	if err := c.postJSON(ctx, "full-pipeline", "/api/sentiment/full-pipeline", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTickerList fetches the constituent list for a named index
func (c *Client) GetTickerList(ctx context.Context, index string) ([]string, error) {
	var resp TickerListResponse
	if err := c.getJSON(ctx, "ticker-lists", "/api/market-data/ticker-lists/"+index, &resp); err != nil {
		return nil, err
	}
	return resp.Tickers, nil
}

// HealthCheck verifies the analysis service is reachable and healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var resp HealthResponse
	if err := c.getJSON(ctx, "health", "/api/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" && resp.Status != "healthy" {
		return &contracts.ExternalServiceError{
			Service: "analysis",
			Op:      "health",
			Err:     fmt.Errorf("unhealthy status: %s", resp.Status),
		}
	}
	return nil
}
