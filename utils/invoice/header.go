package invoice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

var (
	dateRegex          = regexp.MustCompile(`\b(\d{4}[/-]\d{1,2}[/-]\d{1,2}|\d{1,2}[/-]\d{1,2}[/-](?:\d{4}|\d{2}))\b`)
	taxIDRegex         = regexp.MustCompile(`(?:^|[^\d])(\d(?:[ -]?\d){9,12})(?:[^\d]|$)`)
	phoneRegex         = regexp.MustCompile(`\+?\(?\d[\d\-() ]{6,}\d`)
	plausibleNameRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N} .,&'()/\-]+$`)
	centsAmountRegex   = regexp.MustCompile(`\d[.,]\d{2}\b`)
)

// Header holds the fields found near the top of a document.
type Header struct {
	VendorName    string `json:"vendor_name"`
	CustomerName  string `json:"customer_name"`
	TaxID         string `json:"tax_id"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	VendorPhone   string `json:"vendor_phone"`
	VendorAddress string `json:"vendor_address"`
	DocumentType  string `json:"document_type"`
}

// ResolveHeader scans the top zone for header fields. Every field keeps the first
// match in line order. Keyword lines must lie in the top zone; the look-ahead window
// that follows a keyword line may run past it.
func ResolveHeader(doc Document, zones Zones, h Heuristics) Header {
	return resolveHeader(doc, zones, h.compiled())
}

func resolveHeader(doc Document, zones Zones, h Heuristics) Header {
	r := headerResolver{doc: doc, h: h, top: min(len(zones.Top), doc.Len()), customerLine: -1, vendorLine: -1}

	var hd Header
	hd.DocumentType = r.documentType()
	hd.CustomerName = r.customerName()
	hd.VendorName = r.vendorName()
	hd.VendorAddress = r.vendorAddress()
	hd.TaxID = r.taxID()
	hd.InvoiceNumber = r.invoiceNumber()
	hd.VendorPhone = r.phone()
	hd.InvoiceDate = r.date()
	return hd
}

type headerResolver struct {
	doc          Document
	h            Heuristics
	top          int
	customerLine int
	vendorLine   int
}

// window returns the keyword line index and the end of its look-ahead range.
func (r *headerResolver) window(i int) (int, int) {
	return i, min(r.doc.Len(), i+1+r.h.LookaheadWindow)
}

func (r *headerResolver) keywordLines(keywords []string, fn func(i int, kw string) bool) {
	for i := 0; i < r.top; i++ {
		kw, ok := matchKeyword(r.doc.lowerAt(i), keywords)
		if !ok {
			continue
		}
		if fn(i, kw) {
			return
		}
	}
}

func (r *headerResolver) customerName() string {
	var name string
	r.keywordLines(r.h.Keywords.Customer, func(i int, kw string) bool {
		if rest := remainderAfter(r.doc.Lines[i], kw); r.isPlausibleName(rest) {
			name, r.customerLine = rest, i
			return true
		}
		from, to := r.window(i)
		for j := from + 1; j < to; j++ {
			if r.isPlausibleName(r.doc.Lines[j]) && !r.hasFieldKeyword(r.doc.lowerAt(j)) {
				name, r.customerLine = r.doc.Lines[j], j
				return true
			}
		}
		return false
	})
	return name
}

func (r *headerResolver) vendorName() string {
	for i := 0; i < r.top; i++ {
		if i == r.customerLine {
			continue
		}
		lower := r.doc.lowerAt(i)
		if containsAny(lower, r.h.Keywords.DocumentType, r.h.Keywords.Receipt) || r.hasFieldKeyword(lower) {
			continue
		}
		if r.isPlausibleName(r.doc.Lines[i]) {
			r.vendorLine = i
			return r.doc.Lines[i]
		}
	}
	return ""
}

// vendorAddress joins the top-zone lines under the vendor name up to the first
// line that carries a keyword, a date or an amount.
func (r *headerResolver) vendorAddress() string {
	if r.vendorLine < 0 {
		return ""
	}
	k := r.h.Keywords

	var parts []string
	for j := r.vendorLine + 1; j < r.top && len(parts) < r.h.MaxAddressLines; j++ {
		line, lower := r.doc.Lines[j], r.doc.lowerAt(j)
		if j == r.customerLine ||
			r.hasFieldKeyword(lower) ||
			containsAny(lower, k.DocumentType, k.Receipt, k.Subtotal, k.Discount, k.Tax, k.Total) ||
			dateRegex.MatchString(line) ||
			centsAmountRegex.MatchString(line) {
			break
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

// documentType classifies the first top-zone line naming a document type.
func (r *headerResolver) documentType() string {
	k := r.h.Keywords
	for i := 0; i < r.top; i++ {
		lower := r.doc.lowerAt(i)
		switch {
		case containsAny(lower, k.Receipt):
			return dto.DocumentReceipt
		case containsAny(lower, k.DocumentType):
			return dto.DocumentInvoice
		}
	}
	return ""
}

func (r *headerResolver) taxID() string {
	var id string
	r.keywordLines(r.h.Keywords.TaxID, func(i int, _ string) bool {
		if id = findTaxID(r.doc.Lines[i]); id != "" {
			return true
		}
		_, to := r.window(i)
		for j := i + 1; j < to; j++ {
			if !strings.ContainsFunc(r.doc.Lines[j], unicode.IsDigit) {
				continue
			}
			id = findTaxID(r.doc.Lines[j])
			return id != ""
		}
		return false
	})
	return id
}

func (r *headerResolver) invoiceNumber() string {
	var number string
	r.keywordLines(r.h.Keywords.InvoiceNumber, func(i int, kw string) bool {
		if rest := remainderAfter(r.doc.Lines[i], kw); rest != "" {
			number = rest
			return true
		}
		if _, to := r.window(i); i+1 < to {
			number = r.doc.Lines[i+1]
			return true
		}
		return false
	})
	return number
}

func (r *headerResolver) phone() string {
	var phone string
	r.keywordLines(r.h.Keywords.Phone, func(i int, _ string) bool {
		from, to := r.window(i)
		for j := from; j < to; j++ {
			if m := phoneRegex.FindString(r.doc.Lines[j]); m != "" {
				phone = strings.TrimSpace(m)
				return true
			}
		}
		return false
	})
	return phone
}

// date falls back to the first date anywhere in the text.
func (r *headerResolver) date() string {
	var date string
	r.keywordLines(r.h.Keywords.Date, func(i int, _ string) bool {
		from, to := r.window(i)
		for j := from; j < to; j++ {
			if m := dateRegex.FindString(r.doc.Lines[j]); m != "" {
				date = m
				return true
			}
		}
		return false
	})
	if date == "" {
		date = dateRegex.FindString(r.doc.Text)
	}
	return date
}

func (r *headerResolver) hasFieldKeyword(lower string) bool {
	k := r.h.Keywords
	return containsAny(lower, k.Customer, k.TaxID, k.InvoiceNumber, k.Date, k.Phone)
}

func (r *headerResolver) isPlausibleName(s string) bool {
	if len([]rune(s)) < r.h.MinNameLength || !plausibleNameRegex.MatchString(s) {
		return false
	}
	var letters, digits int
	for _, c := range s {
		switch {
		case unicode.IsLetter(c):
			letters++
		case unicode.IsDigit(c):
			digits++
		}
	}
	return letters > 0 && digits <= r.h.MaxNameDigits && digits <= letters
}

// remainderAfter returns the text following the first case-insensitive match of
// kw on line, without leading separators. kw must be lower-case.
func remainderAfter(line, kw string) string {
	n := utf8.RuneCountInString(kw)
	for start := range line {
		end, count := start, 0
		for end < len(line) && count < n {
			_, size := utf8.DecodeRuneInString(line[end:])
			end += size
			count++
		}
		if count < n {
			break
		}
		if strings.EqualFold(line[start:end], kw) {
			return strings.TrimSpace(strings.TrimLeft(line[end:], " :#.-"))
		}
	}
	return ""
}

// findTaxID extracts a 10 to 13 digit run; single spaces or dashes between digits are ignored.
func findTaxID(line string) string {
	for _, m := range taxIDRegex.FindAllStringSubmatch(line, -1) {
		id := strings.Map(func(c rune) rune {
			if c == ' ' || c == '-' {
				return -1
			}
			return c
		}, m[1])
		if n := len(id); n >= 10 && n <= 13 {
			return id
		}
	}
	return ""
}
