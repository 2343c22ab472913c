package pipeline

import "fmt"

// DiscrepancyKind classifies a pipeline discrepancy.
type DiscrepancyKind string

const (
	// KindSchemaError marks an order excluded because a required field
	// was missing or unusable. Fatal for that order only.
	KindSchemaError DiscrepancyKind = "schema_error"
	// KindConservationWarning marks an order whose recorded subtotal and
	// computed line sums disagree beyond one minor unit. Output amounts
	// are still forced exact.
	KindConservationWarning DiscrepancyKind = "conservation_warning"
	// KindTimezoneFallback marks rows whose timestamp lacked offset
	// metadata and was parsed in the configured default zone.
	KindTimezoneFallback DiscrepancyKind = "timezone_fallback"
	// KindEmptyOrder marks an order with zero line items.
	KindEmptyOrder DiscrepancyKind = "empty_order"
	// KindZeroQuantityLine marks a kept-but-tagged zero-quantity line.
	KindZeroQuantityLine DiscrepancyKind = "zero_quantity_line"
	// KindMissingSKU marks a kept-but-tagged line without a SKU.
	KindMissingSKU DiscrepancyKind = "missing_sku"
)

// Discrepancy records one anomaly encountered during normalization. The
// pipeline never aborts on a single bad record; it accumulates these so
// the caller can decide whether to proceed or halt.
type Discrepancy struct {
	Kind    DiscrepancyKind `json:"kind"`
	OrderID string          `json:"order_id,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

func (d Discrepancy) String() string {
	if d.OrderID == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s order=%s: %s", d.Kind, d.OrderID, d.Detail)
}
