package core_test

import (
	"context"
	"testing"
	"time"

	"invoiceseed/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// runStoreContract exercises behaviour every Store backend must share. The
// store must be empty.
func runStoreContract(t *testing.T, store core.Store) {
	ctx := context.Background()

	t.Run("UpsertVendor_FirstWriteWins", func(t *testing.T) {
		first, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "TAX-1", Name: "Acme", Address: "Main St 1"})
		require.NoError(t, err)
		assert.NotZero(t, first.ID)
		assert.Equal(t, "Acme", first.Name)
		require.NotNil(t, first.Address)
		assert.Equal(t, "Main St 1", *first.Address)

		second, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "TAX-1", Name: "Acme Renamed"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Acme", second.Name)

		other, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "Globex", Name: "Globex"})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
		assert.Nil(t, other.Address)
	})

	t.Run("UpsertCustomer_FirstWriteWins", func(t *testing.T) {
		first, err := store.UpsertCustomer(ctx, core.CustomerInput{CustomerID: "Unknown", Name: "Unknown Customer"})
		require.NoError(t, err)
		second, err := store.UpsertCustomer(ctx, core.CustomerInput{CustomerID: "Unknown", Name: "Someone else"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Unknown Customer", second.Name)
	})

	acme, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "TAX-1"})
	require.NoError(t, err)
	globex, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "Globex"})
	require.NoError(t, err)
	customer, err := store.UpsertCustomer(ctx, core.CustomerInput{CustomerID: "Unknown"})
	require.NoError(t, err)

	invoice := func(id string, vendor *core.Vendor, date time.Time, total string) core.InvoiceInput {
		return core.InvoiceInput{
			InvoiceID:   id,
			VendorRef:   vendor.ID,
			CustomerRef: customer.ID,
			Date:        date,
			Status:      core.InvoiceStatusProcessed,
			Currency:    "EUR",
			TotalAmount: dec(total),
			LineItems: []core.LineItemInput{
				{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec(total).Div(dec("2")), Total: dec(total)},
			},
			Payments: []core.PaymentInput{
				{PaidAt: date.AddDate(0, 0, 3), Amount: dec(total), Method: "Bank Transfer"},
			},
		}
	}

	t.Run("CreateInvoice", func(t *testing.T) {
		inv, err := store.CreateInvoice(ctx, invoice("A-0", acme, day(2024, 1, 10), "150.50"))
		require.NoError(t, err)
		assert.NotZero(t, inv.ID)
		require.Len(t, inv.LineItems, 1)
		require.Len(t, inv.Payments, 1)
		assert.Equal(t, inv.ID, inv.LineItems[0].InvoiceRef)
		assert.Equal(t, inv.ID, inv.Payments[0].InvoiceRef)
		assert.NotZero(t, inv.LineItems[0].ID)

		_, err = store.CreateInvoice(ctx, invoice("A-1", acme, day(2024, 2, 5), "49.50"))
		require.NoError(t, err)
		_, err = store.CreateInvoice(ctx, invoice("G-2", globex, day(2024, 2, 20), "300"))
		require.NoError(t, err)
	})

	t.Run("CreateInvoice_DuplicateIsAtomic", func(t *testing.T) {
		before, err := store.ListPaymentFacts(ctx)
		require.NoError(t, err)

		_, err = store.CreateInvoice(ctx, invoice("A-0", acme, day(2024, 3, 1), "1"))
		assert.Error(t, err)

		after, err := store.ListPaymentFacts(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("CreateInvoice_UnknownVendorFails", func(t *testing.T) {
		in := invoice("X-9", acme, day(2024, 3, 1), "1")
		in.VendorRef = 999999
		_, err := store.CreateInvoice(ctx, in)
		assert.Error(t, err)
	})

	t.Run("ListInvoiceFacts", func(t *testing.T) {
		facts, err := store.ListInvoiceFacts(ctx)
		require.NoError(t, err)
		require.Len(t, facts, 3)
		sum := decimal.Zero
		for _, f := range facts {
			sum = sum.Add(f.TotalAmount)
			assert.Equal(t, core.InvoiceStatusProcessed, f.Status)
		}
		assert.True(t, dec("500").Equal(sum), sum.String())
	})

	t.Run("ListPaymentFacts", func(t *testing.T) {
		facts, err := store.ListPaymentFacts(ctx)
		require.NoError(t, err)
		require.Len(t, facts, 3)
		dates := map[string]bool{}
		for _, f := range facts {
			dates[f.PaidAt.UTC().Format("2006-01-02")] = true
		}
		assert.Equal(t, map[string]bool{"2024-01-13": true, "2024-02-08": true, "2024-02-23": true}, dates)
	})

	t.Run("ListVendorTotals", func(t *testing.T) {
		totals, err := store.ListVendorTotals(ctx)
		require.NoError(t, err)
		byName := map[string]decimal.Decimal{}
		for _, vt := range totals {
			byName[vt.Name] = vt.TotalSpend
		}
		require.Len(t, byName, 2)
		assert.True(t, dec("200").Equal(byName["Acme"]), byName["Acme"].String())
		assert.True(t, dec("300").Equal(byName["Globex"]), byName["Globex"].String())
	})

	t.Run("SearchInvoices", func(t *testing.T) {
		all, err := store.SearchInvoices(ctx, "", 50)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"G-2", "A-1", "A-0"}, []string{all[0].InvoiceID, all[1].InvoiceID, all[2].InvoiceID})
		assert.Equal(t, "Globex", all[0].VendorName)
		assert.Equal(t, "Unknown Customer", all[0].CustomerName)

		byVendor, err := store.SearchInvoices(ctx, "aCmE", 50)
		require.NoError(t, err)
		assert.Len(t, byVendor, 2)

		byID, err := store.SearchInvoices(ctx, "g-2", 50)
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.True(t, dec("300").Equal(byID[0].TotalAmount))

		limited, err := store.SearchInvoices(ctx, "", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		wildcard, err := store.SearchInvoices(ctx, "%", 50)
		require.NoError(t, err)
		assert.Empty(t, wildcard)
	})

	t.Run("CreateInvoice_KeepsFullPrecision", func(t *testing.T) {
		in := invoice("P-3", globex, day(2024, 4, 1), "12.345678")
		in.LineItems[0].Quantity = dec("0.333333")
		_, err := store.CreateInvoice(ctx, in)
		require.NoError(t, err)

		rows, err := store.SearchInvoices(ctx, "P-3", 50)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, dec("12.345678").Equal(rows[0].TotalAmount), rows[0].TotalAmount.String())

		payments, err := store.ListPaymentFacts(ctx)
		require.NoError(t, err)
		found := false
		for _, p := range payments {
			found = found || p.Amount.Equal(dec("12.345678"))
		}
		assert.True(t, found, "payment amount lost precision")
	})

	t.Run("Truncate", func(t *testing.T) {
		require.NoError(t, store.Truncate(ctx))

		facts, err := store.ListInvoiceFacts(ctx)
		require.NoError(t, err)
		assert.Empty(t, facts)
		totals, err := store.ListVendorTotals(ctx)
		require.NoError(t, err)
		assert.Empty(t, totals)

		v, err := store.UpsertVendor(ctx, core.VendorInput{VendorID: "fresh", Name: "Fresh"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.ID)
	})
}
