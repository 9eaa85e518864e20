package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// Stats is the headline summary over all invoices.
type Stats struct {
	TotalSpend      decimal.Decimal `json:"totalSpend"`
	TotalInvoices   int             `json:"totalInvoices"`
	AvgInvoiceValue decimal.Decimal `json:"avgInvoiceValue"`
}

// PeriodTotal is the summed amount of one period key: "YYYY-MM" for invoice
// trends, "YYYY-MM-DD" for cash outflow.
type PeriodTotal struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// CategoryTotal is the summed invoice total of one status.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

const (
	// DefaultInvoiceLimit caps Invoices results.
	DefaultInvoiceLimit = 50
	// DefaultTopVendors is used when TopVendors is called with n <= 0.
	DefaultTopVendors = 10

	uncategorized = "Other"
)

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregates over imported invoices.
type ReportingService interface {
	// Stats returns total spend, invoice count and average invoice value.
	Stats(ctx context.Context) (*Stats, error)

	// Invoices returns the newest invoices matching query (see
	// InvoiceReader.SearchInvoices), at most DefaultInvoiceLimit.
	Invoices(ctx context.Context, query string) ([]InvoiceRow, error)

	// TopVendors returns the n vendors with the highest total spend,
	// highest first. Ties are ordered by name.
	TopVendors(ctx context.Context, n int) ([]VendorTotal, error)

	// InvoiceTrends returns invoice totals per calendar month (UTC),
	// ordered by month.
	InvoiceTrends(ctx context.Context) ([]PeriodTotal, error)

	// CategorySpend returns invoice totals per status, ordered by status.
	// A blank status is reported as "Other".
	CategorySpend(ctx context.Context) ([]CategoryTotal, error)

	// CashOutflow returns payment totals per calendar day (UTC), ordered by day.
	CashOutflow(ctx context.Context) ([]PeriodTotal, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	reader InvoiceReader
}

// NewReportingService constructs a ReportingService over the given reader.
func NewReportingService(reader InvoiceReader) ReportingService {
	return &reportingService{reader: reader}
}

func (s *reportingService) Stats(ctx context.Context) (*Stats, error) {
	facts, err := s.reader.ListInvoiceFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	stats := &Stats{TotalInvoices: len(facts)}
	for _, f := range facts {
		stats.TotalSpend = stats.TotalSpend.Add(f.TotalAmount)
	}
	if len(facts) > 0 {
		stats.AvgInvoiceValue = stats.TotalSpend.Div(decimal.NewFromInt(int64(len(facts)))).Round(2)
	}
	return stats, nil
}

func (s *reportingService) Invoices(ctx context.Context, query string) ([]InvoiceRow, error) {
	rows, err := s.reader.SearchInvoices(ctx, strings.TrimSpace(query), DefaultInvoiceLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search invoices: %w", err)
	}
	return rows, nil
}

func (s *reportingService) TopVendors(ctx context.Context, n int) ([]VendorTotal, error) {
	if n <= 0 {
		n = DefaultTopVendors
	}
	totals, err := s.reader.ListVendorTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor totals: %w", err)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].TotalSpend.Cmp(totals[j].TotalSpend); c != 0 {
			return c > 0
		}
		return totals[i].Name < totals[j].Name
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}

func (s *reportingService) InvoiceTrends(ctx context.Context) ([]PeriodTotal, error) {
	facts, err := s.reader.ListInvoiceFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	grouped := make(map[string]decimal.Decimal)
	for _, f := range facts {
		if f.Date.IsZero() {
			continue
		}
		key := f.Date.UTC().Format("2006-01")
		grouped[key] = grouped[key].Add(f.TotalAmount)
	}
	return sortedPeriods(grouped), nil
}

func (s *reportingService) CategorySpend(ctx context.Context) ([]CategoryTotal, error) {
	facts, err := s.reader.ListInvoiceFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	grouped := make(map[string]decimal.Decimal)
	for _, f := range facts {
		cat := strings.TrimSpace(f.Status)
		if cat == "" {
			cat = uncategorized
		}
		grouped[cat] = grouped[cat].Add(f.TotalAmount)
	}

	out := make([]CategoryTotal, 0, len(grouped))
	for cat, total := range grouped {
		out = append(out, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *reportingService) CashOutflow(ctx context.Context) ([]PeriodTotal, error) {
	facts, err := s.reader.ListPaymentFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	grouped := make(map[string]decimal.Decimal)
	for _, f := range facts {
		if f.PaidAt.IsZero() {
			continue
		}
		key := f.PaidAt.UTC().Format("2006-01-02")
		grouped[key] = grouped[key].Add(f.Amount)
	}
	return sortedPeriods(grouped), nil
}

func sortedPeriods(grouped map[string]decimal.Decimal) []PeriodTotal {
	out := make([]PeriodTotal, 0, len(grouped))
	for period, total := range grouped {
		out = append(out, PeriodTotal{Period: period, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
