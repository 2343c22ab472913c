package shopify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ignite/revenue-reporter/internal/money"
	"github.com/ignite/revenue-reporter/internal/pipeline"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
)

// naiveTimestamp is the shape of a created_at that lost its offset.
const naiveTimestamp = "2006-01-02T15:04:05"

// ToRawOrders converts API payloads into the pipeline's validated
// records. This is the single place where loosely-typed fields (string
// money, nullable customer, free-form timestamps) become strict values;
// everything downstream operates on typed records only.
//
// Malformed optional fields never abort the batch: money that fails to
// parse coerces to zero, timestamps without an offset are parsed in
// defaultLoc and flagged, and orders with an unusable created_at are
// excluded with a schema_error discrepancy.
func ToRawOrders(orders []Order, minorDigits int, defaultLoc *time.Location) ([]pipeline.RawOrder, []pipeline.Discrepancy) {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}

	raws := make([]pipeline.RawOrder, 0, len(orders))
	var discs []pipeline.Discrepancy

	for _, o := range orders {
		if o.ID == 0 {
			discs = append(discs, pipeline.Discrepancy{
				Kind:   pipeline.KindSchemaError,
				Detail: fmt.Sprintf("order %q has no id", o.Name),
			})
			continue
		}
		orderID := strconv.FormatInt(o.ID, 10)

		createdAt, tzFallback, err := parseTimestamp(o.CreatedAt, defaultLoc)
		if err != nil {
			discs = append(discs, pipeline.Discrepancy{
				Kind:    pipeline.KindSchemaError,
				OrderID: orderID,
				Detail:  fmt.Sprintf("unusable created_at %q", o.CreatedAt),
			})
			continue
		}

		raw := pipeline.RawOrder{
			ID:                orderID,
			Name:              o.Name,
			CreatedAt:         createdAt,
			TZFallback:        tzFallback,
			Currency:          o.Currency,
			Subtotal:          parseMoneyLenient(o.SubtotalPrice, minorDigits, orderID, "subtotal_price"),
			Discount:          parseMoneyLenient(o.TotalDiscounts, minorDigits, orderID, "total_discounts"),
			Tax:               parseMoneyLenient(o.TotalTax, minorDigits, orderID, "total_tax"),
			FinancialStatus:   o.FinancialStatus,
			FulfillmentStatus: o.FulfillmentStatus,
		}
		if o.Customer != nil && o.Customer.ID != 0 {
			raw.CustomerID = strconv.FormatInt(o.Customer.ID, 10)
		}

		for _, s := range o.ShippingLines {
			raw.Shipping += parseMoneyLenient(s.Price, minorDigits, orderID, "shipping_lines.price")
		}

		for _, li := range o.LineItems {
			raw.Lines = append(raw.Lines, pipeline.RawLine{
				LineID:    strconv.FormatInt(li.ID, 10),
				SKU:       li.SKU,
				Title:     li.Title,
				ProductID: strconv.FormatInt(li.ProductID, 10),
				Quantity:  li.Quantity,
				UnitPrice: parseMoneyLenient(li.Price, minorDigits, orderID, "line_items.price"),
				Discount:  parseMoneyLenient(li.TotalDiscount, minorDigits, orderID, "line_items.total_discount"),
			})
		}

		for _, ref := range o.Refunds {
			raw.Refunds = append(raw.Refunds, convertRefund(ref, minorDigits, orderID))
		}

		raws = append(raws, raw)
	}

	return raws, discs
}

// convertRefund sums the refund's money movements and keeps per-line
// attribution when the API provides it. The refunded total comes from
// transactions of kind "refund"; when a refund carries none (rare), the
// line subtotals stand in for it.
func convertRefund(ref Refund, minorDigits int, orderID string) pipeline.RawRefund {
	var raw pipeline.RawRefund

	for _, tx := range ref.Transactions {
		if tx.Kind != "refund" {
			continue
		}
		raw.Amount += parseMoneyLenient(tx.Amount, minorDigits, orderID, "refunds.transactions.amount")
	}

	var lineTotal money.Amount
	for _, rl := range ref.RefundLineItems {
		amount := parseMoneyLenient(rl.Subtotal, minorDigits, orderID, "refunds.refund_line_items.subtotal")
		raw.Lines = append(raw.Lines, pipeline.RefundLine{
			LineID: strconv.FormatInt(rl.LineItemID, 10),
			Amount: amount,
		})
		lineTotal += amount
	}
	if raw.Amount == 0 {
		raw.Amount = lineTotal
	}
	return raw
}

// parseTimestamp accepts RFC3339 (the normal Shopify shape) and falls
// back to offset-less timestamps interpreted in the default zone.
func parseTimestamp(s string, defaultLoc *time.Location) (t time.Time, tzFallback bool, err error) {
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty timestamp")
	}
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(naiveTimestamp, s, defaultLoc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// parseMoneyLenient coerces a money string to an Amount, treating empty
// and malformed values as zero the way the upstream report always has.
// Malformed (non-empty) values are logged for visibility.
func parseMoneyLenient(s string, minorDigits int, orderID, field string) money.Amount {
	if s == "" {
		return 0
	}
	a, err := money.Parse(s, minorDigits)
	if err != nil {
		logger.Warn("unparseable money value coerced to zero",
			"order_id", orderID, "field", field, "value", s)
		return 0
	}
	return a
}
