// Package pipeline turns raw order records into canonical per-line-item
// rows: it allocates order-level amounts across line items, converts
// timestamps to the reporting timezone, and classifies customers as new
// or repeat. Every transformation is a pure function over the batch; the
// same input always yields the same rows.
package pipeline

import (
	"time"

	"github.com/ignite/revenue-reporter/internal/money"
)

// RawOrder is the validated, typed representation of one purchase
// transaction after the ingestion boundary. Money is already fixed-point;
// timestamps already carry their source offset (or the configured
// fallback zone when the source had none).
type RawOrder struct {
	ID                string
	Name              string
	CustomerID        string // empty means no customer on the order
	CreatedAt         time.Time
	TZFallback        bool // CreatedAt was parsed without offset metadata
	Currency          string
	Subtotal          money.Amount // order subtotal as recorded upstream
	Discount          money.Amount // order-level total discount
	Shipping          money.Amount
	Tax               money.Amount
	FinancialStatus   string
	FulfillmentStatus string
	Lines             []RawLine
	Refunds           []RawRefund
}

// RawLine is one purchased line item.
type RawLine struct {
	LineID    string
	SKU       string
	Title     string
	ProductID string
	Quantity  int64
	UnitPrice money.Amount
	Discount  money.Amount // per-item discount
}

// RawRefund is one refund event against an order. Lines carries per-line
// attribution when the source provides it; amounts not covered by Lines
// are distributed proportionally over the order's line items.
type RawRefund struct {
	Amount money.Amount
	Lines  []RefundLine
}

// RefundLine attributes part of a refund to a specific line item.
type RefundLine struct {
	LineID string
	Amount money.Amount
}

// Row flags. A flagged row is kept in the output and counted in the
// discrepancy list rather than silently dropped.
const (
	FlagTimezoneFallback = "tz_fallback"
	FlagZeroQuantity     = "zero_quantity"
	FlagMissingSKU       = "missing_sku"
)

// CanonicalRow is one (order, line item) pair after normalization. Rows
// are never mutated after creation; aggregation only reads them.
type CanonicalRow struct {
	OrderID    string    `json:"order_id"`
	OrderName  string    `json:"order_name"`
	CustomerID string    `json:"customer_id,omitempty"`
	OrderDate  string    `json:"order_date"` // reporting timezone, YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at"` // reporting timezone
	Currency   string    `json:"currency"`

	SKU       string       `json:"sku"`
	Title     string       `json:"title"`
	ProductID string       `json:"product_id,omitempty"`
	Quantity  int64        `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`

	LineGross         money.Amount `json:"line_gross"` // qty x price, net of per-item discount
	AllocatedDiscount money.Amount `json:"allocated_discount"`
	AllocatedShipping money.Amount `json:"allocated_shipping"`
	AllocatedTax      money.Amount `json:"allocated_tax"`
	RefundsAmount     money.Amount `json:"refunds_amount"`
	NetRevenue        money.Amount `json:"net_revenue"` // line_gross - allocated_discount - refunds

	IsRepeatCustomer bool     `json:"is_repeat_customer"`
	Flags            []string `json:"flags,omitempty"`
}

// Result is the output of one Normalizer run: best-effort rows plus a
// structured account of everything that was skipped or flagged.
type Result struct {
	Rows          []CanonicalRow
	Discrepancies []Discrepancy
	TotalOrders   int
	SkippedOrders int
}
