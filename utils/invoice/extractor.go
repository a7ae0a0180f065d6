// Package invoice turns noisy OCR text of an invoice or receipt into typed fields.
//
// The pipeline is normalize, split zones, repair numbers and collect money candidates,
// resolve header fields, resolve totals and score. Every stage is a pure function of its
// input and a Heuristics value, so an Extractor can be shared between goroutines.
package invoice

import (
	"fmt"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

// OCRErrorMarker prefixes the text an OCR collaborator emits when recognition failed.
const OCRErrorMarker = "OCR ERROR:"

// ErrorText builds the sentinel text for a failed recognition.
func ErrorText(err error) string {
	if err == nil {
		return OCRErrorMarker
	}
	return OCRErrorMarker + " " + err.Error()
}

// IsErrorText reports whether text is empty or carries the OCR failure marker.
func IsErrorText(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || strings.HasPrefix(text, OCRErrorMarker)
}

// Extractor runs the extraction pipeline with a fixed set of heuristics.
type Extractor struct {
	h Heuristics
}

// NewExtractor validates h and returns an Extractor using it.
func NewExtractor(h Heuristics) (*Extractor, error) {
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("new extractor: %w", err)
	}
	return &Extractor{h: h.compiled()}, nil
}

var defaultExtractor = func() *Extractor {
	e, err := NewExtractor(DefaultHeuristics())
	if err != nil {
		panic(err)
	}
	return e
}()

// Extract runs the default heuristics over text.
func Extract(text string) dto.ExtractionResult {
	return defaultExtractor.Extract(text)
}

// Heuristics returns the heuristics the extractor was built with.
func (e *Extractor) Heuristics() Heuristics {
	return e.h
}

// Extract returns the fields found in text. It never fails: unresolved fields
// keep their zero value and empty or sentinel input scores 0.
func (e *Extractor) Extract(text string) dto.ExtractionResult {
	return e.Explain(text).Result
}

// ExtractLines joins recognized lines and records their mean confidence.
func (e *Extractor) ExtractLines(lines []dto.OCRLine) dto.ExtractionResult {
	texts := make([]string, 0, len(lines))
	var sum float64
	var n int
	for _, l := range lines {
		texts = append(texts, l.Text)
		if l.Confidence > 0 {
			sum += l.Confidence
			n++
		}
	}

	joined := strings.Join(texts, "\n")
	res := e.Extract(joined)
	if n > 0 && !IsErrorText(joined) {
		res.OCRConfidence = round2(sum / float64(n))
	}
	return res
}

// LabelLine classifies a single line the way candidates are labeled.
func (e *Extractor) LabelLine(line string) dto.AmountLabel {
	return labelLine(strings.ToLower(line), e.h.Keywords)
}

// Trace exposes the intermediate artifacts of one extraction.
type Trace struct {
	Lines      []string             `json:"lines"`
	Zones      Zones                `json:"zones"`
	Candidates []dto.MoneyCandidate `json:"candidates"`
	Header     Header               `json:"header"`
	Totals     Totals               `json:"totals"`
	Items      []dto.LineItem       `json:"items"`
	Result     dto.ExtractionResult `json:"result"`
}

// Explain runs the pipeline and returns every stage's output.
func (e *Extractor) Explain(text string) Trace {
	tr := Trace{Result: dto.ExtractionResult{HeuristicsVersion: e.h.Version}}
	if IsErrorText(text) {
		return tr
	}

	doc := NewDocument(RepairSplitNumbers(Normalize(text)))
	tr.Lines = doc.Lines
	tr.Zones = SplitZones(doc.Lines, e.h)
	tr.Candidates = extractCandidates(doc.Lines, doc.lower, e.h)
	tr.Header = resolveHeader(doc, tr.Zones, e.h)
	tr.Totals = resolveTotals(tr.Candidates, doc.Len(), e.h)
	tr.Items = resolveItems(doc, tr.Zones, tr.Candidates, e.h)

	r := &tr.Result
	r.VendorName = tr.Header.VendorName
	r.CustomerName = tr.Header.CustomerName
	r.TaxID = tr.Header.TaxID
	r.InvoiceNumber = tr.Header.InvoiceNumber
	r.InvoiceDate = tr.Header.InvoiceDate
	r.VendorPhone = tr.Header.VendorPhone
	r.VendorAddress = tr.Header.VendorAddress
	r.DocumentType = tr.Header.DocumentType
	r.Items = tr.Items
	r.SubtotalAmount = tr.Totals.Subtotal
	r.DiscountAmount = tr.Totals.Discount
	r.VATAmount = tr.Totals.VAT
	r.TotalAmount = tr.Totals.Total
	r.VATPercent = tr.Totals.VATPercent
	r.Confidence = Score(*r, e.h.Weights)
	return tr
}
