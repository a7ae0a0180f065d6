package invoice

import (
	"math"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

// Score adds the weight of every anchored field, caps at 1 and rounds to two places.
func Score(r dto.ExtractionResult, w ConfidenceWeights) float64 {
	var score float64
	if r.VendorName != "" {
		score += w.Vendor
	}
	if r.TotalAmount.IsPositive() {
		score += w.Total
	}
	if r.VATAmount.IsPositive() {
		score += w.VAT
	}
	if r.InvoiceDate != "" {
		score += w.Date
	}
	return round2(math.Min(score, 1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
