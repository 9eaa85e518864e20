package seed_test

import (
	"strings"
	"testing"
	"time"

	"invoiceseed/internal/extract"
	"invoiceseed/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same draw, clamped to the range.
type fixedRand struct{ n int }

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func decodeOne(t *testing.T, js string) extract.Document {
	t.Helper()
	docs, err := extract.Decode(strings.NewReader("[" + js + "]"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0]
}

func TestNormalize_Example(t *testing.T) {
	doc := decodeOne(t, `{"_id":"d1","extractedData":{"llmData":{
		"vendor":{"value":{"vendorName":{"value":"Acme"}}},
		"summary":{"value":{"invoiceTotal":{"value":"150.5"}}}}}}`)

	draft, err := seed.Normalize(doc, 3, fixedRand{n: 0}, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Acme", draft.Vendor.VendorID)
	assert.Equal(t, "Acme", draft.Vendor.Name)
	assert.Equal(t, seed.UnknownCustomerID, draft.Customer.CustomerID)
	assert.Equal(t, seed.UnknownCustomerName, draft.Customer.Name)

	inv := draft.Invoice
	assert.Equal(t, "d1-3", inv.InvoiceID)
	assert.Equal(t, "150.5", inv.TotalAmount.String())
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "Processed", inv.Status)
	assert.Equal(t, testNow, inv.Date)
	assert.Nil(t, inv.DueDate)

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "150.5", inv.LineItems[0].Total.String())
	assert.Equal(t, "150.5", inv.LineItems[0].UnitPrice.String())
	assert.Equal(t, "1", inv.LineItems[0].Quantity.String())
	assert.Equal(t, seed.SynthesizedItemDesc, inv.LineItems[0].Description)

	require.Len(t, inv.Payments, 1)
	assert.Equal(t, "150.5", inv.Payments[0].Amount.String())
	assert.Equal(t, seed.SynthesizedPayMethod, inv.Payments[0].Method)
	assert.Equal(t, testNow, inv.Payments[0].PaidAt)
}

func TestNormalize_NoPayload(t *testing.T) {
	for _, js := range []string{`{"_id":"x"}`, `{"extractedData":{}}`, `{"extractedData":{"llmData":null}}`, `null`} {
		_, err := seed.Normalize(decodeOne(t, js), 0, fixedRand{}, testNow)
		assert.ErrorIs(t, err, seed.ErrNoPayload, js)
	}
}

func TestNormalize_VendorKeyPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		vendor  string
		wantKey string
	}{
		{"PartyNumberWins", `{"vendorName":{"value":"Acme"},"vendorTaxId":{"value":"DE1"},"vendorPartyNumber":{"value":"P-9"}}`, "P-9"},
		{"TaxIDBeforeName", `{"vendorName":{"value":"Acme"},"vendorTaxId":{"value":"DE1"}}`, "DE1"},
		{"EmptyPartyNumberFallsThrough", `{"vendorName":{"value":"Acme"},"vendorTaxId":{"value":"DE1"},"vendorPartyNumber":{"value":""}}`, "DE1"},
		{"NameLast", `{"vendorName":{"value":"Acme"}}`, "Acme"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := decodeOne(t, `{"extractedData":{"llmData":{"vendor":{"value":`+tc.vendor+`}}}}`)
			a, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
			require.NoError(t, err)
			b, err := seed.Normalize(doc, 1, fixedRand{n: 7}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKey, a.Vendor.VendorID)
			assert.Equal(t, a.Vendor.VendorID, b.Vendor.VendorID)
			assert.Equal(t, "Acme", a.Vendor.Name)
		})
	}
}

func TestNormalize_SynthesizedVendorName(t *testing.T) {
	doc := decodeOne(t, `{"extractedData":{"llmData":{}}}`)

	draft, err := seed.Normalize(doc, 0, fixedRand{n: 10}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Vendor-AAAA", draft.Vendor.Name)
	assert.Equal(t, "Vendor-AAAA", draft.Vendor.VendorID)

	// Same seed, same output.
	a, err := seed.Normalize(doc, 0, seed.NewRand(99), testNow)
	require.NoError(t, err)
	b, err := seed.Normalize(doc, 0, seed.NewRand(99), testNow)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Regexp(t, `^Vendor-[0-9A-Z]{4}$`, a.Vendor.Name)
	assert.Regexp(t, `^INV-[0-9A-Z]{8}-0$`, a.Invoice.InvoiceID)
}

func TestNormalize_Summary(t *testing.T) {
	tests := []struct {
		name         string
		summary      string
		wantTotal    string
		wantCurrency string
	}{
		{"InvoiceTotal", `{"invoiceTotal":{"value":99.9},"subTotal":{"value":80}}`, "99.9", "EUR"},
		{"ZeroTotalFallsToSubTotal", `{"invoiceTotal":{"value":0},"subTotal":{"value":"80"}}`, "80", "EUR"},
		{"NonNumericFallsToSubTotal", `{"invoiceTotal":{"value":"n/a"},"subTotal":{"value":"80"}}`, "80", "EUR"},
		{"NothingNumeric", `{"invoiceTotal":{"value":"n/a"}}`, "0", "EUR"},
		{"NegativeStoredAsAbsolute", `{"invoiceTotal":{"value":"-42.10"}}`, "42.1", "EUR"},
		{"CurrencySymbolFirst", `{"currencySymbol":{"value":"$"},"currency":{"value":"USD"}}`, "0", "$"},
		{"CurrencyFallback", `{"currencySymbol":{"value":""},"currency":{"value":"USD"}}`, "0", "USD"},
		{"BlankCurrencyIsEUR", `{"currencySymbol":{"value":"   "}}`, "0", "EUR"},
		{"NonStringCurrencyIsEUR", `{"currency":{"value":{"code":"USD"}}}`, "0", "EUR"},
		{"NumericCurrencySymbolIsEUR", `{"currencySymbol":{"value":978}}`, "0", "EUR"},
		{"NumericSymbolFallsToCurrency", `{"currencySymbol":{"value":978},"currency":{"value":"USD"}}`, "0", "USD"},
		{"BoolCurrencyIsEUR", `{"currency":{"value":true}}`, "0", "EUR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := decodeOne(t, `{"extractedData":{"llmData":{"summary":{"value":`+tc.summary+`}}}}`)
			draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, draft.Invoice.TotalAmount.String())
			assert.Equal(t, tc.wantCurrency, draft.Invoice.Currency)
			assert.False(t, draft.Invoice.TotalAmount.IsNegative())
		})
	}
}

func TestNormalize_InvoiceDate(t *testing.T) {
	doc := decodeOne(t, `{"extractedData":{"llmData":{"invoice":{"value":{"invoiceDate":{"value":"2024-11-02"}}}}}}`)
	draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC), draft.Invoice.Date)

	bad := decodeOne(t, `{"extractedData":{"llmData":{"invoice":{"value":{"invoiceDate":{"value":"sometime"}}}}}}`)
	_, err = seed.Normalize(bad, 0, fixedRand{}, testNow)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, seed.ErrNoPayload)
}

func TestNormalize_LineItems(t *testing.T) {
	doc := decodeOne(t, `{"extractedData":{"llmData":{
		"summary":{"value":{"invoiceTotal":{"value":500}}},
		"lineItems":{"value":[
			{"itemDescription":{"value":"Consulting"},"description":{"value":"ignored"},"quantity":{"value":3},"unitPrice":{"value":"100"},"amount":{"value":"300"}},
			{"description":{"value":"Travel"},"unitPrice":{"value":"50"},"quantity":{"value":"2"}},
			{"quantity":{"value":0},"unitPrice":{"value":"bad"}}
		]}}}}`)

	draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
	require.NoError(t, err)

	items := draft.Invoice.LineItems
	require.Len(t, items, 3)

	assert.Equal(t, "Consulting", items[0].Description)
	assert.Equal(t, "3", items[0].Quantity.String())
	assert.Equal(t, "300", items[0].Total.String())

	assert.Equal(t, "Travel", items[1].Description)
	assert.Equal(t, "100", items[1].Total.String())

	assert.Equal(t, seed.DefaultItemDesc, items[2].Description)
	assert.Equal(t, "1", items[2].Quantity.String())
	assert.Equal(t, "0", items[2].UnitPrice.String())
	assert.Equal(t, "0", items[2].Total.String())
}

func TestNormalize_EmptyLineItemsAreSynthesized(t *testing.T) {
	doc := decodeOne(t, `{"extractedData":{"llmData":{
		"summary":{"value":{"subTotal":{"value":"75.25"}}},
		"lineItems":{"value":[]}}}}`)

	draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
	require.NoError(t, err)
	require.Len(t, draft.Invoice.LineItems, 1)
	assert.True(t, draft.Invoice.LineItems[0].Total.Equal(draft.Invoice.TotalAmount))
}

func TestNormalize_Payments(t *testing.T) {
	t.Run("Provided", func(t *testing.T) {
		doc := decodeOne(t, `{"extractedData":{"llmData":{
			"invoice":{"value":{"invoiceDate":{"value":"2024-05-01T10:00:00Z"}}},
			"payment":{"value":[
				{"paid_at":{"value":"2024-05-20"},"amount":{"value":"-40"},"method":{"value":"Card"}},
				{"amount":{"value":"x"}}
			]}}}}`)
		draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
		require.NoError(t, err)

		pays := draft.Invoice.Payments
		require.Len(t, pays, 2)
		assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), pays[0].PaidAt)
		assert.Equal(t, "40", pays[0].Amount.String())
		assert.Equal(t, "Card", pays[0].Method)

		assert.Equal(t, draft.Invoice.Date, pays[1].PaidAt)
		assert.True(t, pays[1].Amount.IsZero())
		assert.Equal(t, seed.DefaultPaymentMethod, pays[1].Method)
	})

	t.Run("SynthesizedWithinNineDays", func(t *testing.T) {
		doc := decodeOne(t, `{"extractedData":{"llmData":{
			"invoice":{"value":{"invoiceDate":{"value":"2024-05-01"}}},
			"summary":{"value":{"invoiceTotal":{"value":"-12.5"}}}}}}`)
		invoiceDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

		rnd := seed.NewRand(7)
		for i := 0; i < 200; i++ {
			draft, err := seed.Normalize(doc, i, rnd, testNow)
			require.NoError(t, err)
			require.Len(t, draft.Invoice.Payments, 1)
			p := draft.Invoice.Payments[0]
			assert.Equal(t, "12.5", p.Amount.String())
			assert.False(t, p.PaidAt.Before(invoiceDate))
			assert.False(t, p.PaidAt.After(invoiceDate.AddDate(0, 0, 9)))
		}

		draft, err := seed.Normalize(doc, 0, fixedRand{n: 9}, testNow)
		require.NoError(t, err)
		assert.Equal(t, invoiceDate.AddDate(0, 0, 9), draft.Invoice.Payments[0].PaidAt)
	})

	t.Run("BadPaymentDate", func(t *testing.T) {
		doc := decodeOne(t, `{"extractedData":{"llmData":{"payment":{"value":[{"paid_at":{"value":"later"}}]}}}}`)
		_, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
		assert.Error(t, err)
	})
}

func TestNormalize_InvoiceIDPrecedence(t *testing.T) {
	withNumber := decodeOne(t, `{"_id":"doc","extractedData":{"llmData":{"invoice":{"value":{"invoiceNumber":{"value":"INV-77"}}}}}}`)
	draft, err := seed.Normalize(withNumber, 5, fixedRand{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "INV-77-5", draft.Invoice.InvoiceID)

	withID := decodeOne(t, `{"_id":"doc","extractedData":{"llmData":{}}}`)
	draft, err = seed.Normalize(withID, 5, fixedRand{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "doc-5", draft.Invoice.InvoiceID)

	bare := decodeOne(t, `{"extractedData":{"llmData":{}}}`)
	draft, err = seed.Normalize(bare, 5, fixedRand{n: 1}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "INV-11111111-5", draft.Invoice.InvoiceID)
}

func TestNormalize_InvoiceIDsUniqueAcrossBatch(t *testing.T) {
	docs := []string{
		`{"_id":"same","extractedData":{"llmData":{"invoice":{"value":{"invoiceNumber":{"value":"A1"}}}}}}`,
		`{"_id":"same","extractedData":{"llmData":{}}}`,
		`{"extractedData":{"llmData":{}}}`,
	}
	seen := map[string]bool{}
	for round := 0; round < 20; round++ {
		for _, js := range docs {
			i := len(seen)
			draft, err := seed.Normalize(decodeOne(t, js), i, fixedRand{}, testNow)
			require.NoError(t, err)
			require.False(t, seen[draft.Invoice.InvoiceID], draft.Invoice.InvoiceID)
			seen[draft.Invoice.InvoiceID] = true
		}
	}
	assert.Len(t, seen, 60)
}

func TestNormalize_FalsyTextFallsBack(t *testing.T) {
	doc := decodeOne(t, `{"_id":"doc","extractedData":{"llmData":{
		"vendor":{"value":{"vendorName":{"value":false},"vendorTaxId":{"value":0}}},
		"customer":{"value":{"customerName":{"value":false}}},
		"invoice":{"value":{"invoiceNumber":{"value":0}}}}}}`)

	draft, err := seed.Normalize(doc, 2, fixedRand{n: 10}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Vendor-AAAA", draft.Vendor.Name)
	assert.Equal(t, "Vendor-AAAA", draft.Vendor.VendorID)
	assert.Equal(t, seed.UnknownCustomerID, draft.Customer.CustomerID)
	assert.Equal(t, "doc-2", draft.Invoice.InvoiceID)

	numeric := decodeOne(t, `{"extractedData":{"llmData":{"invoice":{"value":{"invoiceNumber":{"value":1042}}}}}}`)
	draft, err = seed.Normalize(numeric, 0, fixedRand{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "1042-0", draft.Invoice.InvoiceID)
}

func TestNormalize_MixedEntriesKeepArrayLength(t *testing.T) {
	doc := decodeOne(t, `{"extractedData":{"llmData":{
		"summary":{"value":{"invoiceTotal":{"value":70}}},
		"lineItems":{"value":[{"description":{"value":"Widget"},"amount":{"value":60}},"junk",null]},
		"payment":{"value":[{"amount":{"value":10}},7]}}}}`)

	draft, err := seed.Normalize(doc, 0, fixedRand{}, testNow)
	require.NoError(t, err)

	items := draft.Invoice.LineItems
	require.Len(t, items, 3)
	assert.Equal(t, "Widget", items[0].Description)
	assert.Equal(t, "60", items[0].Total.String())
	for _, item := range items[1:] {
		assert.Equal(t, seed.DefaultItemDesc, item.Description)
		assert.Equal(t, "1", item.Quantity.String())
		assert.True(t, item.Total.IsZero())
	}

	pays := draft.Invoice.Payments
	require.Len(t, pays, 2)
	assert.Equal(t, "10", pays[0].Amount.String())
	assert.Equal(t, seed.DefaultPaymentMethod, pays[1].Method)
	assert.True(t, pays[1].Amount.IsZero())
	assert.Equal(t, testNow, pays[1].PaidAt)
}
