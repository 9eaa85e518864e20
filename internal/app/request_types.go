package app

// SeedRequest is the input for Seed. An empty File falls back to the
// service's default batch file.
type SeedRequest struct {
	File string
}

// ExportInvoicesRequest is the input for ExportInvoices.
type ExportInvoicesRequest struct {
	Query      string
	OutputPath string
}

// ExportSeedReportRequest is the input for ExportSeedReport.
type ExportSeedReportRequest struct {
	File       string
	OutputPath string
}
