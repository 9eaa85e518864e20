// Package extract models the loosely structured invoice documents produced by
// the upstream document-understanding step. Every leaf is wrapped as
// {"value": T} and any level may be missing.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// VendorFields is the content of llmData.vendor.value.
type VendorFields struct {
	Name        Field[Text] `json:"vendorName"`
	Address     Field[Text] `json:"vendorAddress"`
	TaxID       Field[Text] `json:"vendorTaxId"`
	PartyNumber Field[Text] `json:"vendorPartyNumber"`
}

// CustomerFields is the content of llmData.customer.value.
type CustomerFields struct {
	Name    Field[Text] `json:"customerName"`
	Address Field[Text] `json:"customerAddress"`
}

// SummaryFields is the content of llmData.summary.value.
type SummaryFields struct {
	InvoiceTotal   Field[Amount] `json:"invoiceTotal"`
	SubTotal       Field[Amount] `json:"subTotal"`
	CurrencySymbol Field[string] `json:"currencySymbol"`
	Currency       Field[string] `json:"currency"`
}

// InvoiceFields is the content of llmData.invoice.value.
type InvoiceFields struct {
	Date   Field[Text] `json:"invoiceDate"`
	Number Field[Text] `json:"invoiceNumber"`
}

// LineItemFields is one entry of llmData.lineItems.value.
type LineItemFields struct {
	ItemDescription Field[Text]   `json:"itemDescription"`
	Description     Field[Text]   `json:"description"`
	Quantity        Field[Amount] `json:"quantity"`
	UnitPrice       Field[Amount] `json:"unitPrice"`
	Amount          Field[Amount] `json:"amount"`
}

// PaymentFields is one entry of llmData.payment.value.
type PaymentFields struct {
	PaidAt Field[Text]   `json:"paid_at"`
	Amount Field[Amount] `json:"amount"`
	Method Field[Text]   `json:"method"`
}

// LLMData is the extraction payload of one document.
type LLMData struct {
	Vendor    Field[VendorFields]         `json:"vendor"`
	Customer  Field[CustomerFields]       `json:"customer"`
	Summary   Field[SummaryFields]        `json:"summary"`
	Invoice   Field[InvoiceFields]        `json:"invoice"`
	LineItems Field[List[LineItemFields]] `json:"lineItems"`
	Payment   Field[List[PaymentFields]]  `json:"payment"`
}

// Document is one element of the input batch.
type Document struct {
	ID      string
	LLMData *LLMData

	// malformed is set when llmData is present but is not an object.
	malformed error
}

// Payload returns the extraction payload. A nil payload with a nil error
// means the document has nothing to import.
func (d Document) Payload() (*LLMData, error) {
	if d.malformed != nil {
		return nil, d.malformed
	}
	return d.LLMData, nil
}

func (d *Document) UnmarshalJSON(b []byte) error {
	*d = Document{}

	var raw struct {
		ID            json.RawMessage `json:"_id"`
		ExtractedData json.RawMessage `json:"extractedData"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		// Not an object: nothing to import.
		return nil
	}
	d.ID = decodeID(raw.ID)

	if isNull(raw.ExtractedData) {
		return nil
	}
	var extracted struct {
		LLMData json.RawMessage `json:"llmData"`
	}
	if err := json.Unmarshal(raw.ExtractedData, &extracted); err != nil {
		return nil
	}
	if isNull(extracted.LLMData) {
		return nil
	}

	var data LLMData
	if err := json.Unmarshal(extracted.LLMData, &data); err != nil {
		d.malformed = fmt.Errorf("malformed llmData: %w", err)
		return nil
	}
	d.LLMData = &data
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if d.ID != "" {
		out["_id"] = d.ID
	}
	if d.LLMData != nil {
		out["extractedData"] = map[string]any{"llmData": d.LLMData}
	}
	return json.Marshal(out)
}

// decodeID accepts a plain string, a number, or a Mongo extended-JSON
// object id ({"$oid": "..."}).
func decodeID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return oid.OID
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Label is a short human reference for log lines.
func (d Document) Label(index int) string {
	if d.ID != "" {
		return d.ID
	}
	return "#" + strconv.Itoa(index)
}
