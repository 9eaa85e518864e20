package app

import (
	"context"

	"invoiceseed/internal/core"
)

// ApplicationService is everything the CLI adapter can ask of the seed
// pipeline. Methods return plain result values; rendering them for a terminal
// is left to the adapter.
type ApplicationService interface {
	// Seed loads the batch file named in req and imports every document.
	// A file that cannot be read or parsed is returned as *extract.BatchError
	// and nothing is imported.
	Seed(ctx context.Context, req SeedRequest) (*SeedResult, error)

	// Truncate empties all invoice tables.
	Truncate(ctx context.Context) error

	// GetStats returns total spend, invoice count and average invoice value.
	GetStats(ctx context.Context) (*core.Stats, error)

	// ListInvoices returns the newest invoices matching query.
	ListInvoices(ctx context.Context, query string) (*InvoiceListResult, error)

	// TopVendors returns the n highest-spend vendors.
	TopVendors(ctx context.Context, n int) ([]core.VendorTotal, error)

	// InvoiceTrends returns monthly invoice totals.
	InvoiceTrends(ctx context.Context) ([]core.PeriodTotal, error)

	// CategorySpend returns invoice totals per status.
	CategorySpend(ctx context.Context) ([]core.CategoryTotal, error)

	// CashOutflow returns daily payment totals.
	CashOutflow(ctx context.Context) ([]core.PeriodTotal, error)

	// ExportInvoices writes the invoices matching req.Query to an XLSX file.
	ExportInvoices(ctx context.Context, req ExportInvoicesRequest) (*InvoiceListResult, error)

	// ExportSeedReport runs Seed and writes its summary to an XLSX file.
	ExportSeedReport(ctx context.Context, req ExportSeedReportRequest) (*SeedResult, error)
}
