package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatusProcessed is the status given to every imported invoice.
const InvoiceStatusProcessed = "Processed"

// Invoice is one imported invoice with its children.
type Invoice struct {
	ID          int64           `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	VendorRef   int64           `json:"vendor_ref"`
	CustomerRef int64           `json:"customer_ref"`
	Date        time.Time       `json:"date"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineItems   []LineItem      `json:"line_items"`
	Payments    []Payment       `json:"payments"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LineItem belongs to exactly one Invoice.
type LineItem struct {
	ID          int64           `json:"id"`
	InvoiceRef  int64           `json:"invoice_ref"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Payment belongs to exactly one Invoice.
type Payment struct {
	ID         int64           `json:"id"`
	InvoiceRef int64           `json:"invoice_ref"`
	PaidAt     time.Time       `json:"paid_at"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
}

// InvoiceInput holds an invoice and its children for a single atomic insert.
// VendorRef and CustomerRef are the generated ids of already stored rows.
type InvoiceInput struct {
	InvoiceID   string
	VendorRef   int64
	CustomerRef int64
	Date        time.Time
	DueDate     *time.Time
	Status      string
	Currency    string
	TotalAmount decimal.Decimal
	LineItems   []LineItemInput
	Payments    []PaymentInput
}

// LineItemInput is a line item to be stored with its invoice.
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// PaymentInput is a payment to be stored with its invoice.
type PaymentInput struct {
	PaidAt time.Time
	Amount decimal.Decimal
	Method string
}

// ── Read views ────────────────────────────────────────────────────────────────

// InvoiceFact is the slice of an invoice that period and category
// aggregates need.
type InvoiceFact struct {
	Date        time.Time
	Status      string
	TotalAmount decimal.Decimal
}

// PaymentFact is the slice of a payment that cash-outflow aggregates need.
type PaymentFact struct {
	PaidAt time.Time
	Amount decimal.Decimal
}

// VendorTotal is the summed invoice total of one vendor.
type VendorTotal struct {
	Name       string          `json:"name"`
	TotalSpend decimal.Decimal `json:"totalSpend"`
}

// InvoiceRow is an invoice joined with its vendor and customer names.
type InvoiceRow struct {
	InvoiceID    string          `json:"invoice_id"`
	VendorName   string          `json:"vendor_name"`
	CustomerName string          `json:"customer_name"`
	Date         time.Time       `json:"date"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}
