package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/ignite/revenue-reporter/internal/money"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
)

// Options configures a Normalizer.
type Options struct {
	// Location is the reporting timezone all timestamps are converted
	// into. Nil means UTC.
	Location *time.Location
	// Workers enables parallel per-order normalization when > 1. Output
	// row order is identical to the serial path: per-order results are
	// reassembled in input sequence.
	Workers int
}

// Normalizer explodes raw orders into canonical per-line-item rows.
type Normalizer struct {
	loc     *time.Location
	workers int
}

// NewNormalizer creates a Normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Normalizer{loc: loc, workers: workers}
}

// orderOutput holds one order's normalization output, keyed by input
// index so parallel runs reassemble deterministically.
type orderOutput struct {
	rows    []CanonicalRow
	discs   []Discrepancy
	skipped bool
}

// Normalize converts the batch into canonical rows. Orders stay in input
// sequence and each order's lines stay contiguous. Bad records are
// excluded and accounted for in Result.Discrepancies, never silently
// dropped; the run does not abort on a single bad order.
func (n *Normalizer) Normalize(orders []RawOrder) Result {
	// Repeat classification must be finalized over the whole batch
	// before any row is emitted.
	repeat := ClassifyRepeat(orders)

	outputs := make([]orderOutput, len(orders))
	if n.workers > 1 && len(orders) > 1 {
		n.normalizeParallel(orders, repeat, outputs)
	} else {
		for i, o := range orders {
			outputs[i] = n.normalizeOrder(o, repeat[o.ID])
		}
	}

	res := Result{TotalOrders: len(orders)}
	for _, out := range outputs {
		res.Rows = append(res.Rows, out.rows...)
		res.Discrepancies = append(res.Discrepancies, out.discs...)
		if out.skipped {
			res.SkippedOrders++
		}
	}

	logger.Info("normalization complete",
		"orders", len(orders),
		"rows", len(res.Rows),
		"skipped", res.SkippedOrders,
		"discrepancies", len(res.Discrepancies))
	return res
}

func (n *Normalizer) normalizeParallel(orders []RawOrder, repeat map[string]bool, outputs []orderOutput) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := n.workers
	if workers > len(orders) {
		workers = len(orders)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outputs[i] = n.normalizeOrder(orders[i], repeat[orders[i].ID])
			}
		}()
	}
	for i := range orders {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// normalizeOrder explodes one order into rows. Pure over its inputs.
func (n *Normalizer) normalizeOrder(o RawOrder, isRepeat bool) orderOutput {
	var out orderOutput

	if o.ID == "" {
		out.skipped = true
		out.discs = append(out.discs, Discrepancy{
			Kind:   KindSchemaError,
			Detail: fmt.Sprintf("order %q has no id", o.Name),
		})
		return out
	}
	if len(o.Lines) == 0 {
		out.skipped = true
		out.discs = append(out.discs, Discrepancy{
			Kind:    KindEmptyOrder,
			OrderID: o.ID,
			Detail:  "order has no line items",
		})
		return out
	}

	if o.TZFallback {
		out.discs = append(out.discs, Discrepancy{
			Kind:    KindTimezoneFallback,
			OrderID: o.ID,
			Detail:  "timestamp had no offset metadata, default zone applied",
		})
	}

	// Pre-discount gross per line is the allocation basis for every
	// order-level amount.
	weights := make([]money.Amount, len(o.Lines))
	for i, l := range o.Lines {
		weights[i] = l.UnitPrice.MulInt(l.Quantity)
	}

	discountShares := money.Allocate(o.Discount, weights)
	shippingShares := money.Allocate(o.Shipping, weights)
	taxShares := money.Allocate(o.Tax, weights)
	refundShares := n.allocateRefunds(o, weights)

	localAt := o.CreatedAt.In(n.loc)
	date := localAt.Format("2006-01-02")

	var sumGross money.Amount
	rows := make([]CanonicalRow, 0, len(o.Lines))
	for i, l := range o.Lines {
		lineGross := weights[i] - l.Discount
		sumGross += lineGross

		row := CanonicalRow{
			OrderID:           o.ID,
			OrderName:         o.Name,
			CustomerID:        o.CustomerID,
			OrderDate:         date,
			CreatedAt:         localAt,
			Currency:          o.Currency,
			SKU:               l.SKU,
			Title:             l.Title,
			ProductID:         l.ProductID,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			LineGross:         lineGross,
			AllocatedDiscount: discountShares[i],
			AllocatedShipping: shippingShares[i],
			AllocatedTax:      taxShares[i],
			RefundsAmount:     refundShares[i],
			NetRevenue:        lineGross - discountShares[i] - refundShares[i],
			IsRepeatCustomer:  isRepeat,
		}

		if o.TZFallback {
			row.Flags = append(row.Flags, FlagTimezoneFallback)
		}
		if l.Quantity == 0 {
			row.Flags = append(row.Flags, FlagZeroQuantity)
			out.discs = append(out.discs, Discrepancy{
				Kind:    KindZeroQuantityLine,
				OrderID: o.ID,
				Detail:  fmt.Sprintf("line %s has zero quantity", l.LineID),
			})
		}
		if l.SKU == "" {
			row.Flags = append(row.Flags, FlagMissingSKU)
			out.discs = append(out.discs, Discrepancy{
				Kind:    KindMissingSKU,
				OrderID: o.ID,
				Detail:  fmt.Sprintf("line %s has no sku", l.LineID),
			})
		}
		rows = append(rows, row)
	}

	// The allocator already conserves totals exactly; what can disagree
	// is the upstream-recorded subtotal vs. our line sums.
	if o.Subtotal != 0 {
		delta := sumGross - o.Subtotal
		if delta < -1 || delta > 1 {
			out.discs = append(out.discs, Discrepancy{
				Kind:    KindConservationWarning,
				OrderID: o.ID,
				Detail:  fmt.Sprintf("line gross sum deviates from recorded subtotal by %d minor units", delta),
			})
		}
	}

	out.rows = rows
	return out
}

// allocateRefunds distributes an order's refunds over its lines. Amounts
// with per-line attribution land on the named line; anything left over
// (order-level refunds, shipping refunds, amounts naming unknown lines)
// is allocated proportionally over pre-discount gross.
func (n *Normalizer) allocateRefunds(o RawOrder, weights []money.Amount) []money.Amount {
	shares := make([]money.Amount, len(o.Lines))

	lineIndex := make(map[string]int, len(o.Lines))
	for i, l := range o.Lines {
		lineIndex[l.LineID] = i
	}

	for _, r := range o.Refunds {
		var matched money.Amount
		for _, rl := range r.Lines {
			i, ok := lineIndex[rl.LineID]
			if !ok {
				continue
			}
			shares[i] += rl.Amount
			matched += rl.Amount
		}
		if leftover := r.Amount - matched; leftover != 0 {
			for i, s := range money.Allocate(leftover, weights) {
				shares[i] += s
			}
		}
	}
	return shares
}
