package invoice

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/shopspring/decimal"
)

// quantityRegex matches "2 x", "2x" and "3 @" quantity prefixes.
var quantityRegex = regexp.MustCompile(`(?i)\b(\d{1,4})\s*[x×@]\s*`)

// ResolveItems reads line items from the lines between the start of the middle zone
// and the first subtotal, discount, tax or total line.
func ResolveItems(doc Document, zones Zones, cands []dto.MoneyCandidate, h Heuristics) []dto.LineItem {
	return resolveItems(doc, zones, cands, h.compiled())
}

func resolveItems(doc Document, zones Zones, cands []dto.MoneyCandidate, h Heuristics) []dto.LineItem {
	start := clampIndex(zones.MiddleStart, 0, doc.Len())
	end := clampIndex(zones.BottomStart, start, doc.Len())
	for _, c := range cands {
		if c.LineIndex >= start && c.Label != dto.LabelOther {
			end = c.LineIndex
			break
		}
	}

	itemLines := make(map[int]bool)
	for _, c := range cands {
		if c.LineIndex >= start && c.LineIndex < end && c.Label == dto.LabelOther {
			itemLines[c.LineIndex] = true
		}
	}

	var items []dto.LineItem
	for i := start; i < end; i++ {
		if !itemLines[i] {
			continue
		}
		if item, ok := parseItem(doc.Lines[i], h.MaxAmountDigits); ok {
			item.LineIndex = i
			items = append(items, item)
		}
	}
	return items
}

// parseItem splits a line into name, quantity, unit price and line total.
// Layouts: "name q x unit [total]", "name q unit total" with q*unit == total,
// otherwise the last amount is the line total of a single unit.
func parseItem(line string, maxDigits int) (dto.LineItem, bool) {
	item := dto.LineItem{Quantity: decimal.NewFromInt(1)}

	first := moneyTokenRegex.FindStringIndex(line)
	if first == nil {
		return item, false
	}
	item.Name = strings.TrimSpace(strings.TrimRight(line[:first[0]], " :-.#"))
	if !strings.ContainsFunc(item.Name, unicode.IsLetter) {
		return item, false
	}

	if m := quantityRegex.FindStringSubmatchIndex(line); m != nil && m[0] >= first[0] {
		q, _ := decimal.NewFromString(line[m[2]:m[3]])
		rest := scanAmounts(line[m[1]:], maxDigits)
		if q.IsPositive() && len(rest) > 0 {
			item.Quantity = q
			item.UnitPrice = rest[0]
			item.LineTotal = q.Mul(rest[0])
			if len(rest) > 1 {
				item.LineTotal = rest[len(rest)-1]
			}
			return item, true
		}
	}

	values := scanAmounts(line, maxDigits)
	if len(values) == 0 {
		return item, false
	}
	if n := len(values); n >= 3 {
		q, unit, total := values[n-3], values[n-2], values[n-1]
		if q.IsInteger() && q.Mul(unit).Equal(total) {
			item.Quantity, item.UnitPrice, item.LineTotal = q, unit, total
			return item, true
		}
	}
	item.LineTotal = values[len(values)-1]
	item.UnitPrice = item.LineTotal
	return item, true
}
