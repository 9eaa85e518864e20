package core

import (
	"context"
	"strings"
	"time"
)

// Vendor is a supplier identified by its natural key VendorID
// (party number, tax id or name, in that order of preference).
type Vendor struct {
	ID        int64     `json:"id"`
	VendorID  string    `json:"vendor_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VendorInput holds the fields used when a vendor is first seen.
type VendorInput struct {
	VendorID string
	Name     string
	Address  string
}

// Customer is the billed party identified by its natural key CustomerID.
type Customer struct {
	ID         int64     `json:"id"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CustomerInput holds the fields used when a customer is first seen.
type CustomerInput struct {
	CustomerID string
	Name       string
	Address    string
}

// InvoiceStore is the write side of the invoice schema.
type InvoiceStore interface {
	// UpsertVendor returns the vendor with input.VendorID, creating it if it
	// does not exist. An existing row is returned unchanged.
	UpsertVendor(ctx context.Context, input VendorInput) (*Vendor, error)

	// UpsertCustomer returns the customer with input.CustomerID, creating it
	// if it does not exist. An existing row is returned unchanged.
	UpsertCustomer(ctx context.Context, input CustomerInput) (*Customer, error)

	// CreateInvoice inserts the invoice, its line items and its payments in a
	// single transaction.
	CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error)

	// Truncate removes every row from all five tables and resets identities.
	Truncate(ctx context.Context) error
}

// InvoiceReader is the read side used by reporting and export.
type InvoiceReader interface {
	ListInvoiceFacts(ctx context.Context) ([]InvoiceFact, error)
	ListPaymentFacts(ctx context.Context) ([]PaymentFact, error)
	ListVendorTotals(ctx context.Context) ([]VendorTotal, error)

	// SearchInvoices returns at most limit invoices, newest first. An empty
	// query matches everything; otherwise the query is matched
	// case-insensitively against invoice id, vendor name and customer name.
	SearchInvoices(ctx context.Context, query string, limit int) ([]InvoiceRow, error)
}

// Store is a complete backend.
type Store interface {
	InvoiceStore
	InvoiceReader

	// EnsureSchema creates any missing tables.
	EnsureSchema(ctx context.Context) error
}

func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// containsPattern turns a free-text query into a LIKE pattern matching the
// query anywhere, with LIKE wildcards in the query escaped by '\'.
func containsPattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
