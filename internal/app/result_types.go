package app

import (
	"invoiceseed/internal/core"
	"invoiceseed/internal/seed"
)

// SeedResult is returned by Seed.
type SeedResult struct {
	Source  string
	Summary *seed.Summary
}

// InvoiceListResult is returned by ListInvoices and ExportInvoices.
type InvoiceListResult struct {
	Query    string
	Invoices []core.InvoiceRow
}
