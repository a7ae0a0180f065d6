package invoice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidHeuristics is returned when a Heuristics value cannot drive extraction.
var ErrInvalidHeuristics = errors.New("invalid heuristics")

// ConfidenceWeights are added to the score for each anchored field.
type ConfidenceWeights struct {
	Vendor float64 `yaml:"vendor" json:"vendor"`
	Total  float64 `yaml:"total" json:"total"`
	VAT    float64 `yaml:"vat" json:"vat"`
	Date   float64 `yaml:"date" json:"date"`
}

// Keywords holds the case-insensitive substrings used to label lines and find header fields.
type Keywords struct {
	Subtotal      []string `yaml:"subtotal" json:"subtotal"`
	Discount      []string `yaml:"discount" json:"discount"`
	Tax           []string `yaml:"tax" json:"tax"`
	Total         []string `yaml:"total" json:"total"`
	Customer      []string `yaml:"customer" json:"customer"`
	TaxID         []string `yaml:"tax_id" json:"tax_id"`
	InvoiceNumber []string `yaml:"invoice_number" json:"invoice_number"`
	Date          []string `yaml:"date" json:"date"`
	Phone         []string `yaml:"phone" json:"phone"`
	DocumentType  []string `yaml:"document_type" json:"document_type"`
	// Receipt marks a document-type line as a receipt rather than an invoice.
	Receipt       []string `yaml:"receipt" json:"receipt"`
}

// Heuristics are the named thresholds and keyword tables of the extraction pipeline.
// A Heuristics value is never mutated by the package.
type Heuristics struct {
	Version string `yaml:"version" json:"version"`

	// TopCut and MiddleCut are cumulative fractions of the line count.
	TopCut    float64 `yaml:"top_cut" json:"top_cut"`
	MiddleCut float64 `yaml:"middle_cut" json:"middle_cut"`

	// TotalFallbackCut is where the "bottom of the document" starts when no total line is labeled.
	TotalFallbackCut float64 `yaml:"total_fallback_cut" json:"total_fallback_cut"`

	VATRatioMin float64 `yaml:"vat_ratio_min" json:"vat_ratio_min"`
	VATRatioMax float64 `yaml:"vat_ratio_max" json:"vat_ratio_max"`

	LookaheadWindow int `yaml:"lookahead_window" json:"lookahead_window"`
	MinNameLength   int `yaml:"min_name_length" json:"min_name_length"`
	MaxNameDigits   int `yaml:"max_name_digits" json:"max_name_digits"`
	MaxAmountDigits int `yaml:"max_amount_digits" json:"max_amount_digits"`
	MaxAddressLines int `yaml:"max_address_lines" json:"max_address_lines"`

	// SkipIdentifierLines drops money candidates on tax ID, document number and phone lines.
	SkipIdentifierLines bool `yaml:"skip_identifier_lines" json:"skip_identifier_lines"`

	Weights  ConfidenceWeights `yaml:"weights" json:"weights"`
	Keywords Keywords          `yaml:"keywords" json:"keywords"`
}

// DefaultHeuristics returns the built-in English/Thai heuristics.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Version:          "2024.1",
		TopCut:           0.35,
		MiddleCut:        0.70,
		TotalFallbackCut: 0.60,
		VATRatioMin:      0.03,
		VATRatioMax:      0.25,
		LookaheadWindow:  5,
		MinNameLength:    3,
		MaxNameDigits:    4,
		MaxAmountDigits:  10,
		MaxAddressLines:  3,

		SkipIdentifierLines: true,
		Weights: ConfidenceWeights{
			Vendor: 0.25,
			Total:  0.45,
			VAT:    0.20,
			Date:   0.10,
		},
		Keywords: Keywords{
			Subtotal: []string{"subtotal", "sub total", "sub-total", "รวมเป็นเงิน"},
			Discount: []string{"discount", "ส่วนลด"},
			Tax:      []string{"vat", "tax", "gst", "ภาษี"},
			Total:    []string{"amount due", "balance due", "total", "รวมทั้งสิ้น", "ยอดสุทธิ", "ยอดรวม"},
			Customer: []string{"bill to", "billed to", "sold to", "customer", "client", "buyer", "ลูกค้า"},
			TaxID: []string{
				"tax id", "tax no", "tax reg", "taxpayer", "vat reg", "vat no",
				"tin:", "tin no", "gstin", "gst no", "เลขประจำตัวผู้เสียภาษี",
			},
			InvoiceNumber: []string{
				"invoice no", "invoice number", "invoice #", "inv no", "inv #",
				"receipt no", "receipt number", "receipt #", "bill no",
				"document no", "doc no", "เลขที่",
			},
			Date:         []string{"date", "dated", "issued", "วันที่"},
			Phone:        []string{"tel:", "tel.", "phone", "mobile", "โทร"},
			DocumentType: []string{"invoice", "receipt", "bill", "statement", "ใบเสร็จ", "ใบกำกับภาษี"},
			Receipt:      []string{"receipt", "cash sale", "ใบเสร็จ"},
		},
	}
}

// Validate reports every threshold that is out of range.
func (h Heuristics) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidHeuristics, field, fmt.Sprintf(format, args...)))
	}

	if h.TopCut < 0 || h.TopCut > 1 {
		bad("top_cut", "must be within [0,1], got %v", h.TopCut)
	}
	if h.MiddleCut < h.TopCut || h.MiddleCut > 1 {
		bad("middle_cut", "must be within [top_cut,1], got %v", h.MiddleCut)
	}
	if h.TotalFallbackCut < 0 || h.TotalFallbackCut > 1 {
		bad("total_fallback_cut", "must be within [0,1], got %v", h.TotalFallbackCut)
	}
	if h.VATRatioMin < 0 || h.VATRatioMax < h.VATRatioMin || h.VATRatioMax > 1 {
		bad("vat_ratio", "need 0 <= min <= max <= 1, got %v..%v", h.VATRatioMin, h.VATRatioMax)
	}
	if h.LookaheadWindow < 0 {
		bad("lookahead_window", "must not be negative")
	}
	if h.MinNameLength < 1 {
		bad("min_name_length", "must be at least 1")
	}
	if h.MaxNameDigits < 0 {
		bad("max_name_digits", "must not be negative")
	}
	if h.MaxAddressLines < 0 {
		bad("max_address_lines", "must not be negative")
	}
	if h.MaxAmountDigits < 1 {
		bad("max_amount_digits", "must be at least 1")
	}
	w := h.Weights
	if w.Vendor < 0 || w.Total < 0 || w.VAT < 0 || w.Date < 0 {
		bad("weights", "must not be negative")
	}
	if len(h.Keywords.Total) == 0 {
		bad("keywords.total", "must not be empty")
	}
	if len(h.Keywords.Tax) == 0 {
		bad("keywords.tax", "must not be empty")
	}

	return errors.Join(errs...)
}

// compiled returns a copy with lower-cased keywords ordered longest first,
// so "invoice number" wins over "invoice no".
func (h Heuristics) compiled() Heuristics {
	k := &h.Keywords
	for _, list := range []*[]string{
		&k.Subtotal, &k.Discount, &k.Tax, &k.Total, &k.Customer,
		&k.TaxID, &k.InvoiceNumber, &k.Date, &k.Phone, &k.DocumentType, &k.Receipt,
	} {
		*list = prepareKeywords(*list)
	}
	return h
}

func prepareKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// matchKeyword returns the longest keyword contained in lower.
// Keyword lists must already be prepared.
func matchKeyword(lower string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

func containsAny(lower string, keywords ...[]string) bool {
	for _, list := range keywords {
		if _, ok := matchKeyword(lower, list); ok {
			return true
		}
	}
	return false
}
