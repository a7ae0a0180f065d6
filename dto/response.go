package dto

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Custom errors
var (
	ErrFileRequired        = errors.New("file is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum size")
	ErrNoOCREngine         = errors.New("no OCR engine configured")
	ErrTextRequired        = errors.New("text or lines are required")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Extraction sources
const (
	SourceText     = "text"
	SourcePDFText  = "pdf-text"
	SourcePDFOCR   = "pdf-ocr"
	SourceImageOCR = "image-ocr"
)

// Extraction statuses
const (
	StatusDone  = "done"
	StatusError = "error"
)

// InvoiceExtractResponse is the API view of one extraction.
type InvoiceExtractResponse struct {
	RequestID       string  `json:"request_id"`
	FileName        string  `json:"file_name,omitempty"`
	Status          string  `json:"status"`
	Message         string  `json:"message,omitempty"`
	Source          string  `json:"source"`
	OCREngine       string  `json:"ocr_engine,omitempty"`
	ReferenceNumber string  `json:"reference_number,omitempty"`
	RawText         string  `json:"raw_text,omitempty"`
	VendorName      string  `json:"vendor_name"`
	CustomerName    string  `json:"customer_name"`
	TaxID           string  `json:"tax_id"`
	InvoiceNumber   string  `json:"invoice_number"`
	InvoiceDate     string  `json:"invoice_date"`
	VendorPhone     string  `json:"vendor_phone"`
	VendorAddress   string  `json:"vendor_address"`
	DocumentType    string  `json:"document_type"`
	SubtotalAmount  float64 `json:"subtotal_amount"`
	DiscountAmount  float64 `json:"discount_amount"`
	VATAmount       float64 `json:"vat_amount"`
	VATPercent      float64 `json:"vat_percent"`
	TotalAmount     float64 `json:"total_amount"`
	Confidence      float64 `json:"confidence"`
	OCRConfidence   float64 `json:"ocr_confidence"`
	Heuristics      string  `json:"heuristics_version"`
	ProcessedAt     string  `json:"processed_at"`

	Items []LineItemResponse `json:"items"`
}

// ApplyResult copies an extraction result into the response, rounding amounts to cents.
func (r *InvoiceExtractResponse) ApplyResult(res ExtractionResult) {
	r.VendorName = res.VendorName
	r.CustomerName = res.CustomerName
	r.TaxID = res.TaxID
	r.InvoiceNumber = res.InvoiceNumber
	r.InvoiceDate = res.InvoiceDate
	r.VendorPhone = res.VendorPhone
	r.VendorAddress = res.VendorAddress
	r.DocumentType = res.DocumentType
	r.SubtotalAmount = money(res.SubtotalAmount)
	r.DiscountAmount = money(res.DiscountAmount)
	r.VATAmount = money(res.VATAmount)
	r.VATPercent = money(res.VATPercent)
	r.TotalAmount = money(res.TotalAmount)
	r.Items = make([]LineItemResponse, 0, len(res.Items))
	for _, it := range res.Items {
		r.Items = append(r.Items, LineItemResponse{
			Name:      it.Name,
			Quantity:  it.Quantity.InexactFloat64(),
			UnitPrice: money(it.UnitPrice),
			LineTotal: money(it.LineTotal),
		})
	}
	r.Confidence = res.Confidence
	r.OCRConfidence = res.OCRConfidence
	r.Heuristics = res.HeuristicsVersion
}

// LineItemResponse is the API view of one line item.
type LineItemResponse struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// BatchExtractResponse wraps the per-file results of a batch upload in upload order.
type BatchExtractResponse struct {
	RequestID string                   `json:"request_id"`
	Results   []InvoiceExtractResponse `json:"results"`
	Failed    int                      `json:"failed"`
}
