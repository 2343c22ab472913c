// Package postgres persists pipeline runs so reports can be rebuilt and
// audited without re-pulling from the store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ignite/revenue-reporter/internal/pipeline"
)

// Run records one completed pipeline run.
type Run struct {
	ID            string
	StoreDomain   string
	StartedAt     time.Time
	TotalOrders   int
	SkippedOrders int
	RowCount      int
	Discrepancies int
}

// ReportRepo stores runs and their canonical rows in PostgreSQL.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo creates a Postgres-backed run repository.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

// InitSchema creates the run tables when they don't exist yet.
func (r *ReportRepo) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id UUID PRIMARY KEY,
			store_domain TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			total_orders INT NOT NULL,
			skipped_orders INT NOT NULL,
			row_count INT NOT NULL,
			discrepancies INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS report_rows (
			run_id UUID NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			order_id TEXT NOT NULL,
			order_name TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			order_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			currency TEXT NOT NULL,
			sku TEXT NOT NULL,
			title TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			unit_price BIGINT NOT NULL,
			line_gross BIGINT NOT NULL,
			allocated_discount BIGINT NOT NULL,
			allocated_shipping BIGINT NOT NULL,
			allocated_tax BIGINT NOT NULL,
			refunds_amount BIGINT NOT NULL,
			net_revenue BIGINT NOT NULL,
			is_repeat_customer BOOLEAN NOT NULL,
			flags TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_report_rows_run ON report_rows(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes a run record and its rows in one transaction and
// returns the generated run id.
func (r *ReportRepo) SaveRun(ctx context.Context, run Run, rows []pipeline.CanonicalRow) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.RowCount = len(rows)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs
			(id, store_domain, started_at, total_orders, skipped_orders, row_count, discrepancies)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.StoreDomain, run.StartedAt, run.TotalOrders, run.SkippedOrders, run.RowCount, run.Discrepancies)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows
			(run_id, order_id, order_name, customer_id, order_date, created_at,
			 currency, sku, title, quantity, unit_price, line_gross,
			 allocated_discount, allocated_shipping, allocated_tax,
			 refunds_amount, net_revenue, is_repeat_customer, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			run.ID, row.OrderID, row.OrderName, row.CustomerID, row.OrderDate, row.CreatedAt,
			row.Currency, row.SKU, row.Title, row.Quantity, int64(row.UnitPrice), int64(row.LineGross),
			int64(row.AllocatedDiscount), int64(row.AllocatedShipping), int64(row.AllocatedTax),
			int64(row.RefundsAmount), int64(row.NetRevenue), row.IsRepeatCustomer,
			strings.Join(row.Flags, ";"),
		)
		if err != nil {
			return "", fmt.Errorf("inserting row for order %s: %w", row.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// LatestRun returns the most recent run for a store, or sql.ErrNoRows
// when the store has never been processed.
func (r *ReportRepo) LatestRun(ctx context.Context, storeDomain string) (*Run, error) {
	run := &Run{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, store_domain, started_at, total_orders, skipped_orders, row_count, discrepancies
		FROM report_runs
		WHERE store_domain = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, storeDomain).Scan(
		&run.ID, &run.StoreDomain, &run.StartedAt, &run.TotalOrders,
		&run.SkippedOrders, &run.RowCount, &run.Discrepancies,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
