package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// ScanRunner triggers the full pipeline
type ScanRunner interface {
	RunFullScan(ctx context.Context) error
}

// ScanHandler handles scan lifecycle endpoints
// ⭐ SSOT: scan API handlers live here only
type ScanHandler struct {
	runner  ScanRunner
	tracker *progress.Tracker
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScanHandler creates a new scan handler
func NewScanHandler(runner ScanRunner, tracker *progress.Tracker, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		runner:  runner,
		tracker: tracker,
		logger:  log,
	}
}

// Run starts a full scan in the background.
// POST /api/scan/run
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.tracker.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": "already_running",
		})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer cancel()
		if err := h.runner.RunFullScan(ctx); err != nil && !errors.Is(err, contracts.ErrScanActive) {
			h.logger.WithError(err).Error("Background scan finished with error")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
	})
}

// Cancel requests cooperative cancellation of the active scan.
// POST /api/scan/cancel
func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.tracker.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": "not_running",
		})
		return
	}

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "cancelling",
	})
}

// Progress returns the current run progress snapshot.
// GET /api/scan/progress
func (h *ScanHandler) Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
