package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jdemuth17/market-analysis/pkg/database"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// DependencyChecker is a named external dependency health probe
type DependencyChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler aggregates dependency health
type HealthHandler struct {
	db       *database.DB
	analysis DependencyChecker
	ml       DependencyChecker
	logger   *logger.Logger
}

// NewHealthHandler creates a new health handler. ml may be nil when no
// ML service is configured.
func NewHealthHandler(db *database.DB, analysis, ml DependencyChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, analysis: analysis, ml: ml, logger: log}
}

// Get returns aggregated dependency health.
// GET /api/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deps := map[string]string{}
	healthy := true

	dbStatus := h.db.HealthCheck(ctx)
	if dbStatus.Healthy {
		deps["database"] = "ok"
	} else {
		deps["database"] = dbStatus.Error
		healthy = false
	}

	if err := h.analysis.HealthCheck(ctx); err != nil {
		deps["analysis"] = err.Error()
		healthy = false
	} else {
		deps["analysis"] = "ok"
	}

	if h.ml != nil {
		// ML is optional; an unhealthy ML service degrades to legacy
		// scoring, it never fails overall health
		if err := h.ml.HealthCheck(ctx); err != nil {
			deps["ml"] = err.Error()
		} else {
			deps["ml"] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":       overall,
		"dependencies": deps,
	})
}
