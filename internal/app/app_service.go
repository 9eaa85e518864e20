package app

import (
	"context"
	"fmt"

	"invoiceseed/internal/core"
	"invoiceseed/internal/export"
	"invoiceseed/internal/extract"
	"invoiceseed/internal/seed"
)

// RunLock serializes seed runs across processes. Lock returns a release
// function that must be called once the run ends.
type RunLock interface {
	Lock(ctx context.Context) (release func(context.Context) error, err error)
}

type appService struct {
	store       core.Store
	seeder      *seed.Seeder
	reporting   core.ReportingService
	defaultFile string
	lock        RunLock
}

// NewAppService constructs an appService that satisfies ApplicationService.
// lock may be nil when the store needs no cross-process locking.
func NewAppService(
	store core.Store,
	seeder *seed.Seeder,
	reporting core.ReportingService,
	defaultFile string,
	lock RunLock,
) ApplicationService {
	return &appService{
		store:       store,
		seeder:      seeder,
		reporting:   reporting,
		defaultFile: defaultFile,
		lock:        lock,
	}
}

// Seed loads and imports a batch file.
func (s *appService) Seed(ctx context.Context, req SeedRequest) (*SeedResult, error) {
	file := req.File
	if file == "" {
		file = s.defaultFile
	}

	docs, err := extract.LoadFile(file)
	if err != nil {
		return nil, err
	}

	if s.lock != nil {
		release, err := s.lock.Lock(ctx)
		if err != nil {
			return nil, err
		}
		defer release(context.WithoutCancel(ctx))
	}

	if err := s.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	summary, err := s.seeder.Run(ctx, docs)
	return &SeedResult{Source: file, Summary: summary}, err
}

// Truncate empties all invoice tables.
func (s *appService) Truncate(ctx context.Context) error {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return err
	}
	return s.store.Truncate(ctx)
}

// GetStats returns the headline invoice statistics.
func (s *appService) GetStats(ctx context.Context) (*core.Stats, error) {
	return s.reporting.Stats(ctx)
}

// ListInvoices returns the newest invoices matching query.
func (s *appService) ListInvoices(ctx context.Context, query string) (*InvoiceListResult, error) {
	rows, err := s.reporting.Invoices(ctx, query)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Query: query, Invoices: rows}, nil
}

func (s *appService) TopVendors(ctx context.Context, n int) ([]core.VendorTotal, error) {
	return s.reporting.TopVendors(ctx, n)
}

func (s *appService) InvoiceTrends(ctx context.Context) ([]core.PeriodTotal, error) {
	return s.reporting.InvoiceTrends(ctx)
}

func (s *appService) CategorySpend(ctx context.Context) ([]core.CategoryTotal, error) {
	return s.reporting.CategorySpend(ctx)
}

func (s *appService) CashOutflow(ctx context.Context) ([]core.PeriodTotal, error) {
	return s.reporting.CashOutflow(ctx)
}

// ExportInvoices writes matching invoices to req.OutputPath.
func (s *appService) ExportInvoices(ctx context.Context, req ExportInvoicesRequest) (*InvoiceListResult, error) {
	if req.OutputPath == "" {
		return nil, fmt.Errorf("export invoices: output path is required")
	}
	result, err := s.ListInvoices(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	if err := export.WriteInvoicesXLSX(req.OutputPath, result.Invoices); err != nil {
		return nil, fmt.Errorf("export invoices: %w", err)
	}
	return result, nil
}

// ExportSeedReport seeds req.File and writes the run summary to
// req.OutputPath. A cancelled run still writes the partial summary.
func (s *appService) ExportSeedReport(ctx context.Context, req ExportSeedReportRequest) (*SeedResult, error) {
	if req.OutputPath == "" {
		return nil, fmt.Errorf("export seed report: output path is required")
	}
	result, runErr := s.Seed(ctx, SeedRequest{File: req.File})
	if result == nil || result.Summary == nil {
		return result, runErr
	}
	if err := export.WriteSeedReportXLSX(req.OutputPath, result.Summary); err != nil {
		return result, fmt.Errorf("export seed report: %w", err)
	}
	return result, runErr
}
