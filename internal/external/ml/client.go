package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/pkg/httputil"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// Client handles communication with the ML prediction service
// ⭐ SSOT: ML service calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new ML service client with a local token-bucket
// limiter; the ML service is GPU-bound and cheap to overload.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, requestsPerSec int) *Client {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
	}
}

// PredictRequest asks for ensemble scores per (ticker, category)
type PredictRequest struct {
	Tickers    []string `json:"tickers"`
	Categories []string `json:"categories"`
}

// StockPrediction is one (ticker, category) ensemble prediction.
// XGBoostScore is the cross-sectional model, LSTMScore the temporal model
// (absent when no sequence model is trained for the category).
type StockPrediction struct {
	Ticker        string                    `json:"ticker"`
	Category      string                    `json:"category"`
	XGBoostScore  float64                   `json:"xgboost_score"`
	LSTMScore     *float64                  `json:"lstm_score,omitempty"`
	EnsembleScore float64                   `json:"ensemble_score"`
	Confidence    float64                   `json:"confidence"`
	TopFeatures   []contracts.FeatureImpact `json:"top_features"`
}

// PredictResponse is the prediction batch result
type PredictResponse struct {
	Predictions      []StockPrediction `json:"predictions"`
	TotalTickers     int               `json:"total_tickers"`
	CategoriesScored []string          `json:"categories_scored"`
	ModelVersion     string            `json:"model_version,omitempty"`
}

// HealthResponse is the ML service health payload
type HealthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// Predict scores tickers with the cross-sectional + temporal ensemble.
// The service caps requests at 100 tickers; callers batch accordingly.
func (c *Client) Predict(ctx context.Context, tickers []string, categories []contracts.Category) (*PredictResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := PredictRequest{Tickers: tickers}
	for _, cat := range categories {
		req.Categories = append(req.Categories, string(cat))
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/api/ml/predict", req)
	if err != nil {
		return nil, &contracts.ExternalServiceError{Service: "ml", Op: "predict", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &contracts.ExternalServiceError{
			Service: "ml",
			Op:      "predict",
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload),
		}
	}

	var predictResp PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predictResp); err != nil {
		return nil, &contracts.ExternalServiceError{Service: "ml", Op: "predict", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &predictResp, nil
}

// HealthCheck verifies the ML service is reachable with models loaded
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.httpClient.Get(ctx, c.baseURL+"/api/ml/health")
	if err != nil {
		return &contracts.ExternalServiceError{Service: "ml", Op: "health", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &contracts.ExternalServiceError{
			Service: "ml",
			Op:      "health",
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return &contracts.ExternalServiceError{Service: "ml", Op: "health", Err: fmt.Errorf("decode response: %w", err)}
	}
	if !health.ModelsLoaded {
		return &contracts.ExternalServiceError{
			Service: "ml",
			Op:      "health",
			Err:     fmt.Errorf("no trained models loaded"),
		}
	}
	return nil
}
