package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"invoiceseed/internal/app"
	"invoiceseed/internal/core"
	"invoiceseed/internal/extract"
)

// Usage lists the available subcommands.
const Usage = `Usage: invoiceseed <command> [args]

Commands:
  seed [file]                           import a batch of extracted documents
  truncate                              empty all invoice tables
  stats                                 total spend, invoice count, average value
  invoices [query]                      newest invoices, optionally filtered
  top-vendors [n]                       vendors by total spend
  trends                                invoice totals per month
  categories                            invoice totals per status
  cash-outflow                          payment totals per day
  export invoices <out.xlsx> [query]    write invoices to a workbook
  export report <out.xlsx> [file]       seed and write the run report`

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = errors.New("invalid usage")

// Run executes a one-shot CLI command, writing human-readable output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, out io.Writer, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "seed":
		result, err := svc.Seed(ctx, app.SeedRequest{File: optionalArg(args, 1)})
		if result != nil {
			printSeedSummary(out, result)
		}
		return err

	case "truncate":
		if err := svc.Truncate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "All invoice tables truncated.")
		return nil

	case "stats":
		stats, err := svc.GetStats(ctx)
		if err != nil {
			return err
		}
		printStats(out, stats)
		return nil

	case "invoices", "inv":
		result, err := svc.ListInvoices(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printInvoices(out, result)
		return nil

	case "top-vendors", "top":
		n := 0
		if raw := optionalArg(args, 1); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return usageError(fmt.Sprintf("top-vendors: invalid count %q", raw))
			}
			n = parsed
		}
		totals, err := svc.TopVendors(ctx, n)
		if err != nil {
			return err
		}
		printVendorTotals(out, totals)
		return nil

	case "trends":
		periods, err := svc.InvoiceTrends(ctx)
		if err != nil {
			return err
		}
		printPeriods(out, "INVOICE TRENDS (MONTHLY)", "MONTH", periods)
		return nil

	case "categories":
		cats, err := svc.CategorySpend(ctx)
		if err != nil {
			return err
		}
		printCategories(out, cats)
		return nil

	case "cash-outflow", "outflow":
		periods, err := svc.CashOutflow(ctx)
		if err != nil {
			return err
		}
		printPeriods(out, "CASH OUTFLOW (DAILY)", "DAY", periods)
		return nil

	case "export":
		return runExport(ctx, svc, out, args[1:])

	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runExport(ctx context.Context, svc app.ApplicationService, out io.Writer, args []string) error {
	if len(args) < 2 {
		return usageError("export: expected a kind and an output path")
	}
	kind, path := args[0], args[1]

	switch kind {
	case "invoices":
		result, err := svc.ExportInvoices(ctx, app.ExportInvoicesRequest{
			Query:      strings.Join(args[2:], " "),
			OutputPath: path,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d invoices to %s\n", len(result.Invoices), path)
		return nil

	case "report":
		result, err := svc.ExportSeedReport(ctx, app.ExportSeedReportRequest{
			File:       optionalArg(args, 2),
			OutputPath: path,
		})
		if result != nil {
			printSeedSummary(out, result)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seed report written to %s\n", path)
		return nil

	default:
		return usageError(fmt.Sprintf("export: unknown kind %q", kind))
	}
}

// ExitCode maps a Run error to a process exit status: 0 on success, 2 for
// usage errors, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}

// IsBatchError reports whether err means the batch file itself was unusable.
func IsBatchError(err error) bool {
	var batchErr *extract.BatchError
	return errors.As(err, &batchErr)
}

func usageError(msg string) error {
	return fmt.Errorf("%w: %s", ErrUsage, msg)
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func printSeedSummary(out io.Writer, result *app.SeedResult) {
	s := result.Summary
	if s == nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", "SEED SUMMARY")
	fmt.Fprintf(out, "  Source : %s\n", result.Source)
	fmt.Fprintf(out, "  Run    : %s\n", s.RunID)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-20s %8d\n", "Total", s.Total)
	fmt.Fprintf(out, "  %-20s %8d\n", "Succeeded", s.Succeeded)
	fmt.Fprintf(out, "  %-20s %8d\n", "Failed", s.Failed)
	fmt.Fprintf(out, "  %-20s %8d\n", "Skipped", s.Skipped)
	fmt.Fprintf(out, "  %-20s %8s\n", "Duration", s.Duration.Round(time.Millisecond))
	if len(s.Failures) > 0 {
		fmt.Fprintln(out, strings.Repeat("-", 62))
		for _, f := range s.Failures {
			fmt.Fprintf(out, "  #%-6d %s\n", f.Index, f.Message)
		}
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printStats(out io.Writer, stats *core.Stats) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 42))
	fmt.Fprintf(out, "  %-20s %18s\n", "Total spend", stats.TotalSpend.StringFixed(2))
	fmt.Fprintf(out, "  %-20s %18d\n", "Invoices", stats.TotalInvoices)
	fmt.Fprintf(out, "  %-20s %18s\n", "Average value", stats.AvgInvoiceValue.StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("=", 42))
}

func printInvoices(out io.Writer, result *app.InvoiceListResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 96))
	if result.Query != "" {
		fmt.Fprintf(out, "  INVOICES matching %q\n", result.Query)
	} else {
		fmt.Fprintln(out, "  INVOICES")
	}
	fmt.Fprintln(out, strings.Repeat("=", 96))
	if len(result.Invoices) == 0 {
		fmt.Fprintln(out, "  No invoices found.")
		fmt.Fprintln(out, strings.Repeat("=", 96))
		return
	}
	fmt.Fprintf(out, "  %-20s %-22s %-22s %-10s %-5s %12s\n", "INVOICE", "VENDOR", "CUSTOMER", "DATE", "CUR", "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 96))
	for _, r := range result.Invoices {
		fmt.Fprintf(out, "  %-20s %-22s %-22s %-10s %-5s %12s\n",
			truncate(r.InvoiceID, 20), truncate(r.VendorName, 22), truncate(r.CustomerName, 22),
			r.Date.UTC().Format("2006-01-02"), truncate(r.Currency, 5), r.TotalAmount.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 96))
}

func printVendorTotals(out io.Writer, totals []core.VendorTotal) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 52))
	fmt.Fprintf(out, "  %-32s %16s\n", "VENDOR", "TOTAL SPEND")
	fmt.Fprintln(out, strings.Repeat("-", 52))
	for _, v := range totals {
		fmt.Fprintf(out, "  %-32s %16s\n", truncate(v.Name, 32), v.TotalSpend.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 52))
}

func printPeriods(out io.Writer, title, column string, periods []core.PeriodTotal) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 42))
	fmt.Fprintf(out, "  %s\n", title)
	fmt.Fprintln(out, strings.Repeat("=", 42))
	fmt.Fprintf(out, "  %-12s %26s\n", column, "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 42))
	for _, p := range periods {
		fmt.Fprintf(out, "  %-12s %26s\n", p.Period, p.Total.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 42))
}

func printCategories(out io.Writer, cats []core.CategoryTotal) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 42))
	fmt.Fprintf(out, "  %-20s %18s\n", "CATEGORY", "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 42))
	for _, c := range cats {
		fmt.Fprintf(out, "  %-20s %18s\n", truncate(c.Category, 20), c.Total.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 42))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
