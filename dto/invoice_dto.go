package dto

import "github.com/shopspring/decimal"

// AmountLabel classifies the line a money candidate was found on.
type AmountLabel string

const (
	LabelSubtotal AmountLabel = "subtotal"
	LabelDiscount AmountLabel = "discount"
	LabelTax      AmountLabel = "tax"
	LabelTotal    AmountLabel = "total"
	LabelOther    AmountLabel = "other"
)

// MoneyCandidate is one numeric value recovered from a line of OCR text.
type MoneyCandidate struct {
	Value      decimal.Decimal `json:"value"`
	LineIndex  int             `json:"line_index"`
	Label      AmountLabel     `json:"label"`
	SourceLine string          `json:"source_line"`
}

// Document types
const (
	DocumentInvoice = "invoice"
	DocumentReceipt = "receipt"
)

// LineItem is one purchased item. Quantity defaults to 1 when the line shows none.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	LineIndex int             `json:"line_index"`
}

// OCRLine is a recognized line with the recognizer's confidence in [0,1].
type OCRLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractionResult is the structured record recovered from one invoice or receipt.
// Unresolved strings are empty and unresolved amounts are zero.
type ExtractionResult struct {
	VendorName    string `json:"vendor_name"`
	CustomerName  string `json:"customer_name"`
	TaxID         string `json:"tax_id"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	VendorPhone   string `json:"vendor_phone"`
	VendorAddress string `json:"vendor_address"`
	DocumentType  string `json:"document_type"`

	SubtotalAmount decimal.Decimal `json:"subtotal_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VATPercent     decimal.Decimal `json:"vat_percent"`

	Items []LineItem `json:"items"`

	Confidence        float64 `json:"confidence"`
	OCRConfidence     float64 `json:"ocr_confidence"`
	HeuristicsVersion string  `json:"heuristics_version"`
}
