// Package report rolls canonical rows up into the three business-facing
// views: an overall summary, a daily time series, and per-product
// rollups. All views are derived data, recomputable from the rows at any
// time.
package report

import (
	"sort"
	"time"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/money"
	"github.com/ignite/revenue-reporter/internal/pipeline"
)

// Summary holds batch-wide totals.
type Summary struct {
	TotalOrders   int          `json:"total_orders"`
	TotalRevenue  money.Amount `json:"total_revenue"`
	AverageOrder  money.Amount `json:"average_order_value"`
	RepeatRate    float64      `json:"repeat_rate"` // repeat orders / orders with known customer
	TotalTax      money.Amount `json:"total_tax"`
	TotalShipping money.Amount `json:"total_shipping"`
	TotalDiscount money.Amount `json:"total_discount"`
	TotalRefunds  money.Amount `json:"total_refunds"`
}

// DailyBucket is one day of the reporting timezone's calendar.
type DailyBucket struct {
	Date       string       `json:"date"` // YYYY-MM-DD
	Orders     int          `json:"orders"`
	NetRevenue money.Amount `json:"net_revenue"`
	Shipping   money.Amount `json:"shipping"`
	Tax        money.Amount `json:"tax"`
}

// ProductBucket is one SKU's rollup.
type ProductBucket struct {
	SKU        string       `json:"sku"`
	Title      string       `json:"title"`
	Units      int64        `json:"units"`
	NetRevenue money.Amount `json:"net_revenue"`
}

// Report bundles the derived views for one pipeline run.
type Report struct {
	Summary           Summary         `json:"summary"`
	Daily             []DailyBucket   `json:"daily"`
	ProductsByUnits   []ProductBucket `json:"products_by_units"`
	ProductsByRevenue []ProductBucket `json:"products_by_revenue"`
}

// Aggregator reduces canonical rows into a Report.
type Aggregator struct {
	nullPolicy  config.NullCustomerPolicy
	topProducts int
}

// NewAggregator creates an Aggregator. topProducts limits the product
// views; <= 0 means unlimited.
func NewAggregator(nullPolicy config.NullCustomerPolicy, topProducts int) *Aggregator {
	if nullPolicy == "" {
		nullPolicy = config.NullCustomerNew
	}
	return &Aggregator{nullPolicy: nullPolicy, topProducts: topProducts}
}

// Aggregate computes all three views in one pass over the rows. Empty
// input yields zero values everywhere, never an error: AOV and repeat
// rate are defined as 0 when their denominators are 0.
func (a *Aggregator) Aggregate(rows []pipeline.CanonicalRow) Report {
	var rep Report

	type orderInfo struct {
		repeat        bool
		knownCustomer bool
	}
	orders := make(map[string]orderInfo)
	daily := make(map[string]*DailyBucket)
	dailyOrders := make(map[string]map[string]struct{})
	products := make(map[string]*ProductBucket)

	for _, r := range rows {
		orders[r.OrderID] = orderInfo{repeat: r.IsRepeatCustomer, knownCustomer: r.CustomerID != ""}

		rep.Summary.TotalRevenue += r.NetRevenue
		rep.Summary.TotalTax += r.AllocatedTax
		rep.Summary.TotalShipping += r.AllocatedShipping
		rep.Summary.TotalDiscount += r.AllocatedDiscount
		rep.Summary.TotalRefunds += r.RefundsAmount

		d, ok := daily[r.OrderDate]
		if !ok {
			d = &DailyBucket{Date: r.OrderDate}
			daily[r.OrderDate] = d
			dailyOrders[r.OrderDate] = make(map[string]struct{})
		}
		d.NetRevenue += r.NetRevenue
		d.Shipping += r.AllocatedShipping
		d.Tax += r.AllocatedTax
		dailyOrders[r.OrderDate][r.OrderID] = struct{}{}

		p, ok := products[r.SKU]
		if !ok {
			p = &ProductBucket{SKU: r.SKU, Title: r.Title}
			products[r.SKU] = p
		}
		p.Units += r.Quantity
		p.NetRevenue += r.NetRevenue
	}

	rep.Summary.TotalOrders = len(orders)
	if len(orders) > 0 {
		rep.Summary.AverageOrder = rep.Summary.TotalRevenue.DivInt(int64(len(orders)))
	}

	var repeatOrders, knownOrders int
	for _, info := range orders {
		if info.knownCustomer {
			knownOrders++
		} else if a.nullPolicy == config.NullCustomerNew {
			knownOrders++
		}
		if info.repeat {
			repeatOrders++
		}
	}
	if knownOrders > 0 {
		rep.Summary.RepeatRate = float64(repeatOrders) / float64(knownOrders)
	}

	rep.Daily = make([]DailyBucket, 0, len(daily))
	for date, d := range daily {
		d.Orders = len(dailyOrders[date])
		rep.Daily = append(rep.Daily, *d)
	}
	sort.Slice(rep.Daily, func(i, j int) bool { return rep.Daily[i].Date < rep.Daily[j].Date })

	all := make([]ProductBucket, 0, len(products))
	for _, p := range products {
		all = append(all, *p)
	}

	rep.ProductsByUnits = topN(all, a.topProducts, func(x, y ProductBucket) bool {
		if x.Units != y.Units {
			return x.Units > y.Units
		}
		return x.SKU < y.SKU
	})
	rep.ProductsByRevenue = topN(all, a.topProducts, func(x, y ProductBucket) bool {
		if x.NetRevenue != y.NetRevenue {
			return x.NetRevenue > y.NetRevenue
		}
		return x.SKU < y.SKU
	})

	return rep
}

func topN(buckets []ProductBucket, n int, less func(x, y ProductBucket) bool) []ProductBucket {
	out := make([]ProductBucket, len(buckets))
	copy(out, buckets)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DenseDaily fills calendar gaps in a daily series with zero-valued
// buckets over [from, to]. The input must already be date-sorted, as
// Aggregate produces it.
func DenseDaily(daily []DailyBucket, from, to time.Time) []DailyBucket {
	byDate := make(map[string]DailyBucket, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d
	}

	var out []DailyBucket
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if d, ok := byDate[key]; ok {
			out = append(out, d)
		} else {
			out = append(out, DailyBucket{Date: key})
		}
	}
	return out
}
