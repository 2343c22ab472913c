// Package runner orchestrates one end-to-end reporting run: pull orders
// from the store, normalize them into canonical rows, aggregate the
// report views and persist artifacts.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/pipeline"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
	"github.com/ignite/revenue-reporter/internal/report"
	"github.com/ignite/revenue-reporter/internal/repository/postgres"
	"github.com/ignite/revenue-reporter/internal/shopify"
	"github.com/ignite/revenue-reporter/internal/storage"
	"github.com/ignite/revenue-reporter/internal/workbook"
)

// OrderSource pulls orders and the shop timezone. *shopify.Client
// satisfies it.
type OrderSource interface {
	FetchOrders(ctx context.Context, since time.Time) ([]shopify.Order, error)
	FetchShopTimezone(ctx context.Context) (string, error)
}

// Options controls a single run.
type Options struct {
	// Days overrides the configured lookback window when > 0.
	Days int
	// SkipPull reuses the raw orders artifact from a previous run
	// instead of calling the store API.
	SkipPull bool
	// SkipWorkbook leaves the .xlsx rendering out (the row and
	// discrepancy artifacts are always written).
	SkipWorkbook bool
}

// Result is the outcome of one run.
type Result struct {
	RunID         string                 `json:"run_id,omitempty"`
	StartedAt     time.Time              `json:"started_at"`
	Duration      time.Duration          `json:"duration_ms"`
	Timezone      string                 `json:"timezone"`
	TotalOrders   int                    `json:"total_orders"`
	SkippedOrders int                    `json:"skipped_orders"`
	RowCount      int                    `json:"row_count"`
	Report        report.Report          `json:"report"`
	Discrepancies []pipeline.Discrepancy `json:"discrepancies"`
}

// Runner wires the pipeline stages together.
type Runner struct {
	cfg    *config.Config
	source OrderSource
	store  *storage.Storage

	repo       *postgres.ReportRepo
	checkpoint *shopify.Checkpoint
}

// New creates a Runner over the mandatory collaborators.
func New(cfg *config.Config, source OrderSource, store *storage.Storage) *Runner {
	return &Runner{cfg: cfg, source: source, store: store}
}

// SetRepo attaches the optional Postgres row sink.
func (r *Runner) SetRepo(repo *postgres.ReportRepo) { r.repo = repo }

// SetCheckpoint attaches the optional Redis pull checkpoint.
func (r *Runner) SetCheckpoint(cp *shopify.Checkpoint) { r.checkpoint = cp }

// Run executes the pipeline once.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()

	orders, err := r.pull(ctx, opts)
	if err != nil {
		return nil, err
	}

	loc, tzName := r.resolveTimezone(ctx, opts.SkipPull)

	raws, convDiscs := shopify.ToRawOrders(orders, r.cfg.Report.MinorDigits, loc)
	norm := pipeline.NewNormalizer(pipeline.Options{
		Location: loc,
		Workers:  r.cfg.Pipeline.Workers,
	})
	pres := norm.Normalize(raws)

	discs := append(convDiscs, pres.Discrepancies...)

	agg := report.NewAggregator(r.cfg.Report.NullCustomerPolicy, r.cfg.Report.TopProducts)
	rep := agg.Aggregate(pres.Rows)

	if err := r.store.WriteCanonicalRows(pres.Rows); err != nil {
		return nil, fmt.Errorf("writing canonical rows: %w", err)
	}
	if err := r.store.WriteDiscrepancies(discs); err != nil {
		return nil, fmt.Errorf("writing discrepancies: %w", err)
	}
	if !opts.SkipWorkbook {
		w := workbook.NewWriter(r.cfg.Report.MinorDigits)
		if err := w.Write(rep, r.store.Path(storage.WorkbookFile)); err != nil {
			return nil, fmt.Errorf("writing workbook: %w", err)
		}
		if err := r.store.MirrorWorkbook(); err != nil {
			return nil, fmt.Errorf("mirroring workbook: %w", err)
		}
	}

	res := &Result{
		StartedAt:     started,
		Duration:      time.Since(started),
		Timezone:      tzName,
		TotalOrders:   pres.TotalOrders,
		SkippedOrders: pres.SkippedOrders,
		RowCount:      len(pres.Rows),
		Report:        rep,
		Discrepancies: discs,
	}

	if r.repo != nil {
		runID, err := r.repo.SaveRun(ctx, postgres.Run{
			StoreDomain:   r.cfg.Shopify.StoreDomain,
			StartedAt:     started,
			TotalOrders:   pres.TotalOrders,
			SkippedOrders: pres.SkippedOrders,
			Discrepancies: len(discs),
		}, pres.Rows)
		if err != nil {
			return nil, fmt.Errorf("persisting run: %w", err)
		}
		res.RunID = runID
	}

	logger.Info("run complete",
		"orders", res.TotalOrders,
		"rows", res.RowCount,
		"discrepancies", len(discs),
		"duration", res.Duration.String())
	return res, nil
}

// pull fetches orders from the API or reloads the previous raw artifact.
func (r *Runner) pull(ctx context.Context, opts Options) ([]shopify.Order, error) {
	if opts.SkipPull {
		orders, err := r.store.ReadRawOrders()
		if err != nil {
			return nil, fmt.Errorf("reusing raw orders: %w", err)
		}
		logger.Info("reusing raw orders artifact", "orders", len(orders))
		return orders, nil
	}

	since := r.since(ctx, opts)
	orders, err := r.source.FetchOrders(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("pulling orders: %w", err)
	}
	if err := r.store.WriteRawOrders(orders); err != nil {
		return nil, fmt.Errorf("writing raw orders: %w", err)
	}

	if r.checkpoint != nil {
		if err := r.checkpoint.Save(ctx, time.Now().UTC()); err != nil {
			logger.Warn("saving pull checkpoint failed", "error", err)
		}
	}
	return orders, nil
}

// since resolves the pull window start: explicit days beat the
// checkpoint, which beats the configured lookback.
func (r *Runner) since(ctx context.Context, opts Options) time.Time {
	days := opts.Days
	if days <= 0 {
		days = r.cfg.Shopify.DaysBack
	}
	windowStart := time.Now().UTC().AddDate(0, 0, -days)

	if opts.Days > 0 || r.checkpoint == nil {
		return windowStart
	}
	last, ok, err := r.checkpoint.Last(ctx)
	if err != nil {
		logger.Warn("reading pull checkpoint failed", "error", err)
		return windowStart
	}
	if ok && last.After(windowStart) {
		return last
	}
	return windowStart
}

// resolveTimezone prefers the shop's own zone over the configured one.
// Unknown zone names fall back to the config, then UTC.
func (r *Runner) resolveTimezone(ctx context.Context, skipPull bool) (*time.Location, string) {
	name := r.cfg.Report.Timezone

	if !skipPull {
		if shopTZ, err := r.source.FetchShopTimezone(ctx); err != nil {
			logger.Warn("fetching shop timezone failed, using configured zone", "error", err)
		} else if shopTZ != "" {
			name = shopTZ
		}
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", "timezone", name)
		return time.UTC, "UTC"
	}
	return loc, name
}
