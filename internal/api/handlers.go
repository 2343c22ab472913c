package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/revenue-reporter/internal/pipeline"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
	"github.com/ignite/revenue-reporter/internal/runner"
)

// Runner triggers a pipeline run. *runner.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, opts runner.Options) (*runner.Result, error)
}

// Handlers holds the HTTP handlers and the last run kept in memory.
type Handlers struct {
	runner Runner

	mu      sync.RWMutex
	last    *runner.Result
	running bool
}

// NewHandlers creates the handler set.
func NewHandlers(r Runner) *Handlers {
	return &Handlers{runner: r}
}

// runRequest is the POST /api/report/run body. All fields are optional.
type runRequest struct {
	Days     int  `json:"days"`
	SkipPull bool `json:"skip_pull"`
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// RunReport executes the pipeline synchronously and stores the result.
// Only one run may be in flight at a time.
func (h *Handlers) RunReport(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	res, err := h.runner.Run(r.Context(), runner.Options{
		Days:     req.Days,
		SkipPull: req.SkipPull,
	})
	if err != nil {
		logger.Error("report run failed", "error", err)
		writeError(w, http.StatusBadGateway, "report run failed: "+err.Error())
		return
	}

	h.mu.Lock()
	h.last = res
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":         res.RunID,
		"total_orders":   res.TotalOrders,
		"skipped_orders": res.SkippedOrders,
		"row_count":      res.RowCount,
		"discrepancies":  len(res.Discrepancies),
		"timezone":       res.Timezone,
	})
}

// GetStatus returns metadata about the last completed run.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last, running := h.last, h.running
	h.mu.RUnlock()

	status := map[string]interface{}{"running": running}
	if last != nil {
		status["last_run"] = map[string]interface{}{
			"run_id":         last.RunID,
			"started_at":     last.StartedAt.UTC().Format(time.RFC3339),
			"total_orders":   last.TotalOrders,
			"skipped_orders": last.SkippedOrders,
			"row_count":      last.RowCount,
			"timezone":       last.Timezone,
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// GetSummary returns the last run's batch-wide totals.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	last, ok := h.lastResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, last.Report.Summary)
}

// GetDaily returns the last run's daily time series.
func (h *Handlers) GetDaily(w http.ResponseWriter, r *http.Request) {
	last, ok := h.lastResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, last.Report.Daily)
}

// GetProducts returns both product rankings from the last run.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	last, ok := h.lastResult(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"by_units":   last.Report.ProductsByUnits,
		"by_revenue": last.Report.ProductsByRevenue,
	})
}

// GetDiscrepancies returns the last run's discrepancy list.
func (h *Handlers) GetDiscrepancies(w http.ResponseWriter, r *http.Request) {
	last, ok := h.lastResult(w)
	if !ok {
		return
	}
	discs := last.Discrepancies
	if discs == nil {
		discs = []pipeline.Discrepancy{}
	}
	writeJSON(w, http.StatusOK, discs)
}

// lastResult fetches the last run or writes a 404 when none exists yet.
func (h *Handlers) lastResult(w http.ResponseWriter) (*runner.Result, bool) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()

	if last == nil {
		writeError(w, http.StatusNotFound, "no report has been generated yet")
		return nil, false
	}
	return last, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
