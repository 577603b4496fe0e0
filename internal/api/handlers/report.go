package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// ReportHandler serves persisted scan reports
type ReportHandler struct {
	reports contracts.ReportRepository
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports contracts.ReportRepository, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: log}
}

// GetLatest returns the most recent report for a category.
// GET /api/reports/{category}
func (h *ReportHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	cat := contracts.Category(mux.Vars(r)["category"])
	if !cat.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown category",
		})
		return
	}

	report, err := h.reports.LatestByCategory(r.Context(), cat)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load report",
		})
		return
	}
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no report generated for category",
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}
