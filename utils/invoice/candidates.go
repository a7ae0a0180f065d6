package invoice

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/shopspring/decimal"
)

const currencySymbols = "$฿€£¥₹"

var (
	moneyTokenRegex   = regexp.MustCompile(`(?:[$฿€£¥₹]\s*)?([0-9][0-9OoSsIl ,.]*)`)
	percentTokenRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)
	thousandsGroup    = regexp.MustCompile(`^\d{3}(?:[.,]\d+)?$`)
	leadingGroup      = regexp.MustCompile(`^\d{1,3}$`)
	digitsOnly        = regexp.MustCompile(`^\d+$`)
)

// labelLine classifies an already lower-cased line. Priority is
// subtotal, discount, tax, total, other.
func labelLine(lower string, kw Keywords) dto.AmountLabel {
	switch {
	case containsAny(lower, kw.Subtotal):
		return dto.LabelSubtotal
	case containsAny(lower, kw.Discount):
		return dto.LabelDiscount
	case containsAny(lower, kw.Tax):
		return dto.LabelTax
	case containsAny(lower, kw.Total):
		return dto.LabelTotal
	default:
		return dto.LabelOther
	}
}

// ExtractCandidates returns every positive money value in document order.
// Each value carries the label of the line it was found on.
func ExtractCandidates(lines []string, h Heuristics) []dto.MoneyCandidate {
	return extractCandidates(lines, nil, h.compiled())
}

func extractCandidates(lines, lower []string, h Heuristics) []dto.MoneyCandidate {
	var out []dto.MoneyCandidate
	for i, line := range lines {
		l := ""
		if i < len(lower) {
			l = lower[i]
		} else {
			l = strings.ToLower(line)
		}
		if h.SkipIdentifierLines && containsAny(l, h.Keywords.TaxID, h.Keywords.InvoiceNumber, h.Keywords.Phone) {
			continue
		}

		values := scanAmounts(line, h.MaxAmountDigits)
		if len(values) == 0 {
			continue
		}
		label := labelLine(l, h.Keywords)
		for _, v := range values {
			out = append(out, dto.MoneyCandidate{
				Value:      v,
				LineIndex:  i,
				Label:      label,
				SourceLine: line,
			})
		}
	}
	return out
}

// ScanAmounts returns the positive money values found on one line.
func ScanAmounts(line string) []decimal.Decimal {
	return scanAmounts(line, DefaultHeuristics().MaxAmountDigits)
}

func scanAmounts(line string, maxDigits int) []decimal.Decimal {
	// dates and percentages are never money
	line = dateRegex.ReplaceAllString(line, " ")
	line = percentTokenRegex.ReplaceAllString(line, " ")

	var out []decimal.Decimal
	for _, m := range moneyTokenRegex.FindAllStringSubmatch(line, -1) {
		token := strings.TrimRight(m[1], " ,.OoSsIl")
		for _, part := range splitToken(token) {
			if isIdentifier(part, maxDigits) {
				continue
			}
			v, err := ParseAmount(part)
			if err != nil || !v.IsPositive() {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// splitToken keeps "1 234 567.89" whole and splits "107.00 100.00" into its numbers.
func splitToken(token string) []string {
	groups := strings.Fields(ocrDigitReplacer.Replace(token))
	if len(groups) < 2 {
		return groups
	}
	if leadingGroup.MatchString(groups[0]) {
		grouped := true
		for _, g := range groups[1:] {
			if !thousandsGroup.MatchString(g) {
				grouped = false
				break
			}
		}
		if grouped {
			return []string{strings.Join(groups, "")}
		}
	}
	return groups
}

// isIdentifier reports long bare digit runs such as tax IDs, phone numbers and barcodes.
func isIdentifier(token string, maxDigits int) bool {
	return len(token) >= maxDigits && digitsOnly.MatchString(token)
}
