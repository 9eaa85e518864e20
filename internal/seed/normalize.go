package seed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoiceseed/internal/core"
	"invoiceseed/internal/extract"

	"github.com/shopspring/decimal"
)

// Fallback values used when the extraction leaves a field empty.
const (
	DefaultCurrency      = "EUR"
	UnknownCustomerID    = "UnknownCustomer"
	UnknownCustomerName  = "Unknown Customer"
	DefaultItemDesc      = "Service/Product"
	SynthesizedItemDesc  = "Auto-generated item"
	DefaultPaymentMethod = "Bank Transfer"
	SynthesizedPayMethod = "Auto-Generated"
	vendorNamePrefix     = "Vendor-"
	invoiceIDPrefix      = "INV-"
	vendorTokenLen       = 4
	invoiceTokenLen      = 8
	maxPaymentOffsetDays = 9
)

// ErrNoPayload marks a document without extraction data. It is a skip, not a
// failure.
var ErrNoPayload = errors.New("document has no extraction payload")

// dateLayouts are tried in order when parsing extracted dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
}

// Draft is the canonical form of one document, ready to be stored. The
// invoice's VendorRef and CustomerRef are filled in once the vendor and
// customer rows exist.
type Draft struct {
	Index    int
	Vendor   core.VendorInput
	Customer core.CustomerInput
	Invoice  core.InvoiceInput
}

// Normalize derives the vendor, customer, invoice, line items and payments of
// the document at position index. rnd supplies synthesized names, ids and
// payment dates; now is the invoice date when the document has none.
func Normalize(doc extract.Document, index int, rnd Rand, now time.Time) (*Draft, error) {
	llm, err := doc.Payload()
	if err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, ErrNoPayload
	}

	vendor := resolveVendor(llm.Vendor.Value, rnd)
	customer := resolveCustomer(llm.Customer.Value)
	total, currency := resolveSummary(llm.Summary.Value)

	invoiceDate := now
	if raw, ok := extract.FirstText(llm.Invoice.Value.Date); ok {
		if invoiceDate, err = parseDate(raw); err != nil {
			return nil, fmt.Errorf("invoice date: %w", err)
		}
	}

	items := resolveLineItems(llm.LineItems.Value, total)
	payments, err := resolvePayments(llm.Payment.Value, total, invoiceDate, rnd)
	if err != nil {
		return nil, err
	}

	return &Draft{
		Index:    index,
		Vendor:   vendor,
		Customer: customer,
		Invoice: core.InvoiceInput{
			InvoiceID:   resolveInvoiceID(llm.Invoice.Value, doc.ID, index, rnd),
			Date:        invoiceDate,
			Status:      core.InvoiceStatusProcessed,
			Currency:    currency,
			TotalAmount: total,
			LineItems:   items,
			Payments:    payments,
		},
	}, nil
}

// resolveVendor keys the vendor by party number, then tax id, then name.
func resolveVendor(v extract.VendorFields, rnd Rand) core.VendorInput {
	name, ok := extract.FirstText(v.Name)
	if !ok {
		name = vendorNamePrefix + randomToken(rnd, vendorTokenLen)
	}
	key, ok := extract.FirstText(v.PartyNumber, v.TaxID)
	if !ok {
		key = name
	}
	address, _ := extract.FirstText(v.Address)
	return core.VendorInput{VendorID: key, Name: name, Address: address}
}

func resolveCustomer(c extract.CustomerFields) core.CustomerInput {
	address, _ := extract.FirstText(c.Address)
	if name, ok := extract.FirstText(c.Name); ok {
		return core.CustomerInput{CustomerID: name, Name: name, Address: address}
	}
	return core.CustomerInput{CustomerID: UnknownCustomerID, Name: UnknownCustomerName, Address: address}
}

// resolveSummary returns the non-negative invoice total and the currency.
func resolveSummary(s extract.SummaryFields) (decimal.Decimal, string) {
	total, _ := extract.FirstAmount(s.InvoiceTotal, s.SubTotal)

	currency, _ := extract.FirstString(s.CurrencySymbol, s.Currency)
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return total.Abs(), currency
}

func resolveLineItems(entries []extract.LineItemFields, total decimal.Decimal) []core.LineItemInput {
	if len(entries) == 0 {
		return []core.LineItemInput{{
			Description: SynthesizedItemDesc,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   total,
			Total:       total,
		}}
	}

	items := make([]core.LineItemInput, 0, len(entries))
	for _, e := range entries {
		desc, ok := extract.FirstText(e.ItemDescription, e.Description)
		if !ok {
			desc = DefaultItemDesc
		}
		qty, ok := extract.FirstAmount(e.Quantity)
		if !ok {
			qty = decimal.NewFromInt(1)
		}
		unit, _ := extract.FirstAmount(e.UnitPrice)
		lineTotal, ok := extract.FirstAmount(e.Amount)
		if !ok {
			lineTotal = unit.Mul(qty)
		}
		items = append(items, core.LineItemInput{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   unit,
			Total:       lineTotal,
		})
	}
	return items
}

func resolvePayments(entries []extract.PaymentFields, total decimal.Decimal, invoiceDate time.Time, rnd Rand) ([]core.PaymentInput, error) {
	if len(entries) == 0 {
		offset := time.Duration(rnd.IntN(maxPaymentOffsetDays+1)) * 24 * time.Hour
		return []core.PaymentInput{{
			PaidAt: invoiceDate.Add(offset),
			Amount: total,
			Method: SynthesizedPayMethod,
		}}, nil
	}

	payments := make([]core.PaymentInput, 0, len(entries))
	for i, e := range entries {
		paidAt := invoiceDate
		if raw, ok := extract.FirstText(e.PaidAt); ok {
			t, err := parseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("payment %d date: %w", i, err)
			}
			paidAt = t
		}
		amount, _ := extract.FirstAmount(e.Amount)
		method, ok := extract.FirstText(e.Method)
		if !ok {
			method = DefaultPaymentMethod
		}
		payments = append(payments, core.PaymentInput{
			PaidAt: paidAt,
			Amount: amount.Abs(),
			Method: method,
		})
	}
	return payments, nil
}

// resolveInvoiceID suffixes the best available key with the record index so
// ids stay unique across the batch even when every other key collides.
func resolveInvoiceID(inv extract.InvoiceFields, docID string, index int, rnd Rand) string {
	suffix := "-" + strconv.Itoa(index)
	if number, ok := extract.FirstText(inv.Number); ok {
		return number + suffix
	}
	if docID != "" {
		return docID + suffix
	}
	return invoiceIDPrefix + randomToken(rnd, invoiceTokenLen) + suffix
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
