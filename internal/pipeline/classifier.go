package pipeline

import "strconv"

// firstPurchase is the chronologically first (timestamp, order id) pair
// seen for a customer within the batch.
type firstPurchase struct {
	order RawOrder
}

// ClassifyRepeat determines, per order, whether it is the customer's
// first (new) or a subsequent (repeat) purchase within the batch.
//
// The first-purchase lookup is built over the ENTIRE batch before any
// order is classified: "first" is only knowable globally, and classifying
// while still mutating the lookup can break monotonicity on out-of-order
// input. Ties on identical timestamps break by order id ascending.
// Orders without a customer id are always "new".
func ClassifyRepeat(orders []RawOrder) map[string]bool {
	first := make(map[string]firstPurchase)
	for _, o := range orders {
		if o.CustomerID == "" || o.ID == "" {
			continue
		}
		f, ok := first[o.CustomerID]
		if !ok || orderBefore(o, f.order) {
			first[o.CustomerID] = firstPurchase{order: o}
		}
	}

	repeat := make(map[string]bool, len(orders))
	for _, o := range orders {
		if o.ID == "" {
			continue
		}
		if o.CustomerID == "" {
			repeat[o.ID] = false
			continue
		}
		f := first[o.CustomerID]
		repeat[o.ID] = orderBefore(f.order, o)
	}
	return repeat
}

// orderBefore reports whether a sorts strictly before b by
// (timestamp, order id).
func orderBefore(a, b RawOrder) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return orderIDLess(a.ID, b.ID)
}

// orderIDLess compares order ids numerically when both are numeric,
// lexicographically otherwise.
func orderIDLess(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
