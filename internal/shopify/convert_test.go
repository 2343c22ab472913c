package shopify

import (
	"testing"
	"time"

	"github.com/ignite/revenue-reporter/internal/pipeline"
)

func apiOrder() Order {
	return Order{
		ID:             450789469,
		Name:           "#1001",
		CreatedAt:      "2024-01-15T12:00:00-05:00",
		Currency:       "USD",
		SubtotalPrice:  "100.00",
		TotalDiscounts: "10.00",
		TotalTax:       "8.25",
		Customer:       &Customer{ID: 207119551, Email: "jane@example.com"},
		LineItems: []LineItem{
			{ID: 1, SKU: "SKU-A", Title: "Widget", ProductID: 11, Quantity: 1, Price: "30.00", TotalDiscount: "0.00"},
			{ID: 2, SKU: "SKU-B", Title: "Gadget", ProductID: 12, Quantity: 1, Price: "70.00", TotalDiscount: "0.00"},
		},
		ShippingLines: []ShippingLine{{Price: "5.00"}},
	}
}

func TestToRawOrders(t *testing.T) {
	raws, discs := ToRawOrders([]Order{apiOrder()}, 2, time.UTC)
	if len(discs) != 0 {
		t.Fatalf("unexpected discrepancies: %v", discs)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d raw orders, want 1", len(raws))
	}

	raw := raws[0]
	if raw.ID != "450789469" {
		t.Errorf("id = %s", raw.ID)
	}
	if raw.CustomerID != "207119551" {
		t.Errorf("customer id = %s", raw.CustomerID)
	}
	if raw.Subtotal != 10000 || raw.Discount != 1000 || raw.Tax != 825 || raw.Shipping != 500 {
		t.Errorf("money fields = %d/%d/%d/%d", raw.Subtotal, raw.Discount, raw.Tax, raw.Shipping)
	}
	if len(raw.Lines) != 2 || raw.Lines[0].UnitPrice != 3000 {
		t.Errorf("lines = %+v", raw.Lines)
	}
	if raw.TZFallback {
		t.Error("offset timestamp must not flag fallback")
	}
	// Offset preserved: noon Eastern is 17:00 UTC.
	if !raw.CreatedAt.Equal(time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", raw.CreatedAt)
	}
}

func TestToRawOrdersNaiveTimestampFallback(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	o := apiOrder()
	o.CreatedAt = "2024-01-15T12:00:00"

	raws, discs := ToRawOrders([]Order{o}, 2, loc)
	if len(discs) != 0 {
		t.Fatalf("unexpected discrepancies: %v", discs)
	}
	if !raws[0].TZFallback {
		t.Error("naive timestamp must flag fallback")
	}
	if !raws[0].CreatedAt.Equal(time.Date(2024, 1, 15, 12, 0, 0, 0, loc)) {
		t.Errorf("created_at = %v, want noon in default zone", raws[0].CreatedAt)
	}
}

func TestToRawOrdersBadTimestampExcluded(t *testing.T) {
	o := apiOrder()
	o.CreatedAt = "not-a-time"

	raws, discs := ToRawOrders([]Order{o}, 2, time.UTC)
	if len(raws) != 0 {
		t.Fatal("order with unusable timestamp must be excluded")
	}
	if len(discs) != 1 || discs[0].Kind != pipeline.KindSchemaError {
		t.Errorf("discs = %v, want one schema_error", discs)
	}
}

func TestToRawOrdersMissingIDExcluded(t *testing.T) {
	o := apiOrder()
	o.ID = 0

	raws, discs := ToRawOrders([]Order{o}, 2, time.UTC)
	if len(raws) != 0 || len(discs) != 1 {
		t.Fatalf("raws=%d discs=%d, want 0/1", len(raws), len(discs))
	}
}

func TestToRawOrdersLenientMoney(t *testing.T) {
	o := apiOrder()
	o.TotalDiscounts = "garbage"
	o.LineItems[0].Price = ""

	raws, discs := ToRawOrders([]Order{o}, 2, time.UTC)
	if len(discs) != 0 {
		t.Fatalf("malformed optional fields must not exclude the order: %v", discs)
	}
	if raws[0].Discount != 0 || raws[0].Lines[0].UnitPrice != 0 {
		t.Error("malformed money must coerce to zero")
	}
}

func TestToRawOrdersRefunds(t *testing.T) {
	o := apiOrder()
	o.Refunds = []Refund{{
		ID: 1,
		RefundLineItems: []RefundLineItem{
			{LineItemID: 1, Quantity: 1, Subtotal: "30.00"},
		},
		Transactions: []Transaction{
			{Kind: "refund", Amount: "35.00"},
			{Kind: "void", Amount: "99.99"}, // ignored
		},
	}}

	raws, _ := ToRawOrders([]Order{o}, 2, time.UTC)
	ref := raws[0].Refunds[0]
	if ref.Amount != 3500 {
		t.Errorf("refund amount = %d, want 3500 (refund transactions only)", ref.Amount)
	}
	if len(ref.Lines) != 1 || ref.Lines[0].LineID != "1" || ref.Lines[0].Amount != 3000 {
		t.Errorf("refund lines = %+v", ref.Lines)
	}
}

func TestToRawOrdersRefundWithoutTransactions(t *testing.T) {
	o := apiOrder()
	o.Refunds = []Refund{{
		RefundLineItems: []RefundLineItem{{LineItemID: 2, Subtotal: "70.00"}},
	}}

	raws, _ := ToRawOrders([]Order{o}, 2, time.UTC)
	if raws[0].Refunds[0].Amount != 7000 {
		t.Errorf("amount = %d, want line subtotal fallback 7000", raws[0].Refunds[0].Amount)
	}
}
