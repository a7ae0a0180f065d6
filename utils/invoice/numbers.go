package invoice

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparseableAmount is returned by ParseAmount for tokens that are not numbers.
var ErrUnparseableAmount = errors.New("unparseable amount")

var (
	spaceBeforeSeparatorRegex = regexp.MustCompile(`(\d) ([.,]\d)`)
	splitThousandsHeadRegex   = regexp.MustCompile(`^([^\d.,]*)(\d{1,3})[.,](\d{3})$`)
	splitIntegerHeadRegex     = regexp.MustCompile(`^([^\d.,]*)(\d{1,6})$`)
	splitFractionTailRegex    = regexp.MustCompile(`^(\d{2})([^\d%]*)$`)

	canonicalAmountRegex = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

var ocrDigitReplacer = strings.NewReplacer(
	"O", "0", "o", "0",
	"S", "5", "s", "5",
	"I", "1", "l", "1",
)

// RepairSplitNumbers merges decimals that OCR emitted as two tokens:
// "1699 48" becomes "1699.48" and "1.798 39" becomes "1798.39".
// Tokens are never joined across lines.
func RepairSplitNumbers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = repairLine(line)
	}
	return strings.Join(lines, "\n")
}

func repairLine(line string) string {
	line = spaceBeforeSeparatorRegex.ReplaceAllString(line, "$1$2")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return line
	}

	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if i+1 < len(fields) {
			if merged, ok := mergeSplitNumber(fields[i], fields[i+1]); ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, fields[i])
	}
	return strings.Join(out, " ")
}

// mergeSplitNumber tries the thousands form before the plain integer form.
func mergeSplitNumber(head, tail string) (string, bool) {
	frac := splitFractionTailRegex.FindStringSubmatch(tail)
	if frac == nil {
		return "", false
	}
	if m := splitThousandsHeadRegex.FindStringSubmatch(head); m != nil {
		return m[1] + m[2] + m[3] + "." + frac[1] + frac[2], true
	}
	if m := splitIntegerHeadRegex.FindStringSubmatch(head); m != nil {
		return m[1] + m[2] + "." + frac[1] + frac[2], true
	}
	return "", false
}

// ParseAmount converts an OCR money token to a decimal.
//
// Letter/digit confusions are fixed and spaces removed first. When both '.' and ','
// occur the last one is the decimal separator. A lone ',' is a decimal separator only
// when exactly two digits follow it. Repeated '.' with three-digit groups are thousands
// separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimLeft(strings.TrimSpace(raw), currencySymbols+" ")
	s = ocrDigitReplacer.Replace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Trim(s, ".,")
	if s == "" {
		return decimal.Zero, ErrUnparseableAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
			if strings.Contains(s, ",") {
				// "1,234,56" is not a number
				return decimal.Zero, ErrUnparseableAmount
			}
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		groups := strings.Split(s, ".")
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return decimal.Zero, ErrUnparseableAmount
			}
		}
		s = strings.Join(groups, "")
	}

	if !canonicalAmountRegex.MatchString(s) {
		return decimal.Zero, ErrUnparseableAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrUnparseableAmount
	}
	return d, nil
}
