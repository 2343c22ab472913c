// Package storage writes run artifacts (raw orders, canonical rows,
// discrepancies) to a local output directory and optionally mirrors them
// to S3.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/money"
	"github.com/ignite/revenue-reporter/internal/pipeline"
	"github.com/ignite/revenue-reporter/internal/shopify"
)

// Artifact file names inside the output directory.
const (
	RawOrdersFile     = "raw_orders.json"
	CleanOrdersFile   = "clean_orders.csv"
	DiscrepanciesFile = "discrepancies.json"
	WorkbookFile      = "Revenue_Report.xlsx"
)

// Storage manages the run's artifact directory.
type Storage struct {
	config      config.StorageConfig
	minorDigits int
	aws         *AWSStorage
}

// New creates a Storage rooted at the configured output directory,
// creating it if needed.
func New(cfg config.StorageConfig, minorDigits int) (*Storage, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", cfg.OutputDir, err)
	}
	return &Storage{config: cfg, minorDigits: minorDigits}, nil
}

// SetAWS attaches an S3 backend; artifact writes are mirrored there.
func (s *Storage) SetAWS(aws *AWSStorage) { s.aws = aws }

// Path returns the local path of an artifact file.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.config.OutputDir, name)
}

// WriteRawOrders persists the pulled batch as pretty-printed JSON so a
// later run can skip the pull step.
func (s *Storage) WriteRawOrders(orders []shopify.Order) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling raw orders: %w", err)
	}
	return s.writeFile(RawOrdersFile, data)
}

// ReadRawOrders loads a previously pulled batch.
func (s *Storage) ReadRawOrders() ([]shopify.Order, error) {
	data, err := os.ReadFile(s.Path(RawOrdersFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", RawOrdersFile, err)
	}
	var orders []shopify.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RawOrdersFile, err)
	}
	return orders, nil
}

// canonicalHeader is the column layout the presentation layer expects.
var canonicalHeader = []string{
	"order_id", "order_name", "customer_id", "order_date", "created_at",
	"currency", "sku", "title", "product_id", "quantity", "unit_price",
	"line_gross", "allocated_discount", "allocated_shipping",
	"allocated_tax", "refunds_amount", "net_revenue",
	"is_repeat_customer", "flags",
}

// WriteCanonicalRows persists the normalized rows as CSV with money
// rendered back to decimal strings at the run's precision.
func (s *Storage) WriteCanonicalRows(rows []pipeline.CanonicalRow) error {
	f, err := os.Create(s.Path(CleanOrdersFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", CleanOrdersFile, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(canonicalHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.OrderID,
			r.OrderName,
			r.CustomerID,
			r.OrderDate,
			r.CreatedAt.Format(time.RFC3339),
			r.Currency,
			r.SKU,
			r.Title,
			r.ProductID,
			strconv.FormatInt(r.Quantity, 10),
			money.Format(r.UnitPrice, s.minorDigits),
			money.Format(r.LineGross, s.minorDigits),
			money.Format(r.AllocatedDiscount, s.minorDigits),
			money.Format(r.AllocatedShipping, s.minorDigits),
			money.Format(r.AllocatedTax, s.minorDigits),
			money.Format(r.RefundsAmount, s.minorDigits),
			money.Format(r.NetRevenue, s.minorDigits),
			strconv.FormatBool(r.IsRepeatCustomer),
			strings.Join(r.Flags, ";"),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return s.mirror(CleanOrdersFile)
}

// WriteDiscrepancies persists the run's discrepancy list.
func (s *Storage) WriteDiscrepancies(discs []pipeline.Discrepancy) error {
	if discs == nil {
		discs = []pipeline.Discrepancy{}
	}
	data, err := json.MarshalIndent(discs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling discrepancies: %w", err)
	}
	return s.writeFile(DiscrepanciesFile, data)
}

// MirrorWorkbook uploads an already-written workbook file to S3 when an
// AWS backend is attached.
func (s *Storage) MirrorWorkbook() error {
	return s.mirror(WorkbookFile)
}

func (s *Storage) writeFile(name string, data []byte) error {
	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return s.mirror(name)
}

func (s *Storage) mirror(name string) error {
	if s.aws == nil {
		return nil
	}
	return s.aws.UploadFile(s.Path(name), name)
}
