// Package shopify is the boundary to the Shopify Admin REST API: a
// paginating order client and the conversion of loosely-typed API
// payloads into the pipeline's validated records.
package shopify

import "time"

// Config holds the client settings.
type Config struct {
	StoreDomain string // your-store.myshopify.com
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	MaxRetries  int
}

// Order mirrors the Admin API order payload. Money fields arrive as
// decimal strings; they are not parsed until ToRawOrders.
type Order struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	OrderNumber       int64          `json:"order_number"`
	CreatedAt         string         `json:"created_at"`
	Currency          string         `json:"currency"`
	SubtotalPrice     string         `json:"subtotal_price"`
	TotalDiscounts    string         `json:"total_discounts"`
	TotalTax          string         `json:"total_tax"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	Customer          *Customer      `json:"customer"`
	LineItems         []LineItem     `json:"line_items"`
	ShippingLines     []ShippingLine `json:"shipping_lines"`
	Refunds           []Refund       `json:"refunds"`
}

// Customer is the order's customer reference.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// LineItem is one purchased SKU within an order.
type LineItem struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Title         string `json:"title"`
	VariantID     int64  `json:"variant_id"`
	ProductID     int64  `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	Price         string `json:"price"`
	TotalDiscount string `json:"total_discount"`
}

// ShippingLine is one shipping charge on an order.
type ShippingLine struct {
	Price string `json:"price"`
}

// Refund is one refund event, with optional per-line attribution.
type Refund struct {
	ID              int64            `json:"id"`
	CreatedAt       string           `json:"created_at"`
	RefundLineItems []RefundLineItem `json:"refund_line_items"`
	Transactions    []Transaction    `json:"transactions"`
}

// RefundLineItem attributes part of a refund to a line item.
type RefundLineItem struct {
	LineItemID int64  `json:"line_item_id"`
	Quantity   int64  `json:"quantity"`
	Subtotal   string `json:"subtotal"`
}

// Transaction is a money movement attached to a refund.
type Transaction struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

// ordersResponse is the orders.json envelope.
type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// shopResponse is the shop.json envelope.
type shopResponse struct {
	Shop struct {
		IANATimezone string `json:"iana_timezone"`
		Timezone     string `json:"timezone"`
	} `json:"shop"`
}
