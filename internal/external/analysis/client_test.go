package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/pkg/config"
	"github.com/jdemuth17/market-analysis/pkg/httputil"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{LogLevel: "error", LogFormat: "json"}
	log := logger.New(cfg)
	httpClient := httputil.New(cfg, log).DisableRetry()
	return NewClient(httpClient, log, server.URL), server
}

func TestFetchPrices(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/market-data/fetch-prices", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req FetchPricesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"AAPL", "MSFT"}, req.Tickers)
		assert.Equal(t, "5d", req.Period)

		json.NewEncoder(w).Encode(FetchPricesResponse{
			Data: []TickerPriceData{
				{Ticker: "AAPL", Bars: []OHLCVBar{{Date: "2026-08-28", Close: 231.5, Volume: 1000}}},
				{Ticker: "MSFT", Error: "not found"},
			},
			TotalTickers: 2, Successful: 1, Failed: 1,
		})
	}))

	resp, err := client.FetchPrices(context.Background(), []string{"AAPL", "MSFT"}, "5d", "1d")
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 1, resp.Successful)
	assert.Empty(t, resp.Data[0].Error)
	assert.Equal(t, "not found", resp.Data[1].Error, "per-ticker errors surface in the payload")
}

func TestFetchPrices_ServiceErrorWrapped(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchPrices(context.Background(), []string{"AAPL"}, "5d", "1d")
	require.Error(t, err)

	var svcErr *contracts.ExternalServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "analysis", svcErr.Service)
	assert.Equal(t, "fetch-prices", svcErr.Op)
}

func TestGetTickerList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/market-data/ticker-lists/sp500", r.URL.Path)
		json.NewEncoder(w).Encode(TickerListResponse{
			Index: "sp500", Tickers: []string{"AAPL", "MSFT"}, Count: 2,
		})
	}))

	tickers, err := client.GetTickerList(context.Background(), "sp500")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestHealthCheck(t *testing.T) {
	status := "ok"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthResponse{Status: status})
	}))

	require.NoError(t, client.HealthCheck(context.Background()))

	status = "degraded"
	require.Error(t, client.HealthCheck(context.Background()))
}

func TestRunSentimentPipeline(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req FullSentimentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"news", "social"}, req.Sources)
		assert.Equal(t, 30, req.MaxItemsPerSource)

		json.NewEncoder(w).Encode(FullSentimentResponse{
			Data: []TickerSentiment{
				{Ticker: "AAPL", Source: "news", PositiveScore: 0.6, NegativeScore: 0.2, NeutralScore: 0.2, SampleSize: 12},
			},
			TotalTickers: 1, TotalTextsAnalyzed: 12,
		})
	}))

	resp, err := client.RunSentimentPipeline(context.Background(), []string{"AAPL"},
		[]contracts.SentimentSource{contracts.SourceNews, contracts.SourceSocial})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 12, resp.Data[0].SampleSize)
}
