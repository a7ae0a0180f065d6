package invoice

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/shopspring/decimal"
)

var vatPercentRegex = regexp.MustCompile(`(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)

// Strategy names reported in Totals.
const (
	StrategyLabeledTotal     = "labeled-total"
	StrategyMaxInBottom      = "max-in-bottom"
	StrategyMaxOverall       = "max-overall"
	StrategyLabeledTaxNearby = "labeled-tax-nearest-total"
	StrategyRatioGuess       = "ratio-guess"
	StrategyNone             = "none"
)

// Totals holds the resolved amounts and which strategy produced total and VAT.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	VAT        decimal.Decimal `json:"vat"`
	Total      decimal.Decimal `json:"total"`
	VATPercent decimal.Decimal `json:"vat_percent"`

	TotalStrategy string `json:"total_strategy"`
	VATStrategy   string `json:"vat_strategy"`
}

type totalStrategy struct {
	name    string
	resolve func(cands []dto.MoneyCandidate, lineCount int, h Heuristics) (dto.MoneyCandidate, bool)
}

type vatStrategy struct {
	name    string
	resolve func(cands []dto.MoneyCandidate, total decimal.Decimal, h Heuristics) (dto.MoneyCandidate, bool)
}

// Ordered fallback chains; the first strategy that yields a candidate wins.
var (
	totalChain = []totalStrategy{
		{StrategyLabeledTotal, labeledTotal},
		{StrategyMaxInBottom, maxInBottom},
		{StrategyMaxOverall, maxOverall},
	}
	vatChain = []vatStrategy{
		{StrategyLabeledTaxNearby, labeledTaxNearestTotal},
		{StrategyRatioGuess, ratioGuess},
	}
)

// ResolveTotals picks subtotal, discount, VAT and total from the candidates of a
// document with lineCount lines.
func ResolveTotals(cands []dto.MoneyCandidate, lineCount int, h Heuristics) Totals {
	return resolveTotals(cands, lineCount, h.compiled())
}

func resolveTotals(cands []dto.MoneyCandidate, lineCount int, h Heuristics) Totals {
	t := Totals{TotalStrategy: StrategyNone, VATStrategy: StrategyNone}

	for _, s := range totalChain {
		if c, ok := s.resolve(cands, lineCount, h); ok {
			t.Total, t.TotalStrategy = c.Value, s.name
			break
		}
	}

	for _, s := range vatChain {
		if c, ok := s.resolve(cands, t.Total, h); ok {
			t.VAT, t.VATStrategy = c.Value, s.name
			t.VATPercent = vatPercent(c.SourceLine)
			break
		}
	}

	if c, ok := firstLabeled(cands, dto.LabelSubtotal); ok {
		t.Subtotal = c.Value
	}
	if c, ok := firstLabeled(cands, dto.LabelDiscount); ok {
		t.Discount = c.Value
	}
	return t
}

// labeledTotal prefers the latest total line, then the larger value.
func labeledTotal(cands []dto.MoneyCandidate, _ int, _ Heuristics) (dto.MoneyCandidate, bool) {
	var best dto.MoneyCandidate
	found := false
	for _, c := range cands {
		if c.Label != dto.LabelTotal {
			continue
		}
		if !found || c.LineIndex > best.LineIndex ||
			(c.LineIndex == best.LineIndex && c.Value.GreaterThan(best.Value)) {
			best, found = c, true
		}
	}
	return best, found
}

func maxInBottom(cands []dto.MoneyCandidate, lineCount int, h Heuristics) (dto.MoneyCandidate, bool) {
	threshold := int(float64(lineCount) * h.TotalFallbackCut)
	return maxWhere(cands, func(c dto.MoneyCandidate) bool { return c.LineIndex >= threshold })
}

func maxOverall(cands []dto.MoneyCandidate, _ int, _ Heuristics) (dto.MoneyCandidate, bool) {
	return maxWhere(cands, func(dto.MoneyCandidate) bool { return true })
}

func maxWhere(cands []dto.MoneyCandidate, keep func(dto.MoneyCandidate) bool) (dto.MoneyCandidate, bool) {
	var best dto.MoneyCandidate
	found := false
	for _, c := range cands {
		if keep(c) && (!found || c.Value.GreaterThan(best.Value)) {
			best, found = c, true
		}
	}
	return best, found
}

// labeledTaxNearestTotal orders tax lines by their distance to the line holding the
// value closest to the total. Without a total the first tax line wins.
func labeledTaxNearestTotal(cands []dto.MoneyCandidate, total decimal.Decimal, _ Heuristics) (dto.MoneyCandidate, bool) {
	var taxes []dto.MoneyCandidate
	for _, c := range cands {
		if c.Label == dto.LabelTax {
			taxes = append(taxes, c)
		}
	}
	if len(taxes) == 0 {
		return dto.MoneyCandidate{}, false
	}
	if total.IsPositive() {
		ref := closestLineToValue(cands, total)
		sort.SliceStable(taxes, func(i, j int) bool {
			return abs(taxes[i].LineIndex-ref) < abs(taxes[j].LineIndex-ref)
		})
	}
	return taxes[0], true
}

// ratioGuess looks for a plausible VAT share of the total on unlabeled lines.
func ratioGuess(cands []dto.MoneyCandidate, total decimal.Decimal, h Heuristics) (dto.MoneyCandidate, bool) {
	if !total.IsPositive() {
		return dto.MoneyCandidate{}, false
	}
	lo := total.Mul(decimal.NewFromFloat(h.VATRatioMin))
	hi := total.Mul(decimal.NewFromFloat(h.VATRatioMax))

	var near []dto.MoneyCandidate
	for _, c := range cands {
		if c.Label == dto.LabelSubtotal || c.Label == dto.LabelDiscount {
			continue
		}
		if c.Value.LessThan(lo) || c.Value.GreaterThan(hi) {
			continue
		}
		near = append(near, c)
	}
	if len(near) == 0 {
		return dto.MoneyCandidate{}, false
	}

	sort.SliceStable(near, func(i, j int) bool {
		ti := containsAny(strings.ToLower(near[i].SourceLine), h.Keywords.Tax)
		tj := containsAny(strings.ToLower(near[j].SourceLine), h.Keywords.Tax)
		if ti != tj {
			return ti
		}
		return near[i].Value.GreaterThan(near[j].Value)
	})
	return near[0], true
}

func firstLabeled(cands []dto.MoneyCandidate, label dto.AmountLabel) (dto.MoneyCandidate, bool) {
	for _, c := range cands {
		if c.Label == label {
			return c, true
		}
	}
	return dto.MoneyCandidate{}, false
}

func closestLineToValue(cands []dto.MoneyCandidate, value decimal.Decimal) int {
	best := -1
	var bestDiff decimal.Decimal
	for _, c := range cands {
		diff := c.Value.Sub(value).Abs()
		if best < 0 || diff.LessThan(bestDiff) {
			best, bestDiff = c.LineIndex, diff
		}
	}
	return max(best, 0)
}

func vatPercent(line string) decimal.Decimal {
	m := vatPercentRegex.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.Replace(m[1], ",", ".", 1))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
