package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHeuristics_Valid(t *testing.T) {
	require.NoError(t, DefaultHeuristics().Validate())
}

func TestHeuristics_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *Heuristics)
		field  string
	}{
		{"top cut", func(h *Heuristics) { h.TopCut = 1.5 }, "top_cut"},
		{"middle before top", func(h *Heuristics) { h.MiddleCut = 0.1 }, "middle_cut"},
		{"fallback cut", func(h *Heuristics) { h.TotalFallbackCut = -0.1 }, "total_fallback_cut"},
		{"ratio order", func(h *Heuristics) { h.VATRatioMin, h.VATRatioMax = 0.3, 0.1 }, "vat_ratio"},
		{"window", func(h *Heuristics) { h.LookaheadWindow = -1 }, "lookahead_window"},
		{"name length", func(h *Heuristics) { h.MinNameLength = 0 }, "min_name_length"},
		{"address lines", func(h *Heuristics) { h.MaxAddressLines = -1 }, "max_address_lines"},
		{"weights", func(h *Heuristics) { h.Weights.VAT = -1 }, "weights"},
		{"total keywords", func(h *Heuristics) { h.Keywords.Total = nil }, "keywords.total"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := DefaultHeuristics()
			tc.mutate(&h)

			err := h.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidHeuristics)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestHeuristics_ValidateCollectsAll(t *testing.T) {
	h := DefaultHeuristics()
	h.TopCut = -1
	h.MaxAmountDigits = 0

	err := h.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_cut")
	assert.Contains(t, err.Error(), "max_amount_digits")
}

func TestCompiled_LongestKeywordFirst(t *testing.T) {
	h := DefaultHeuristics().compiled()

	kw, ok := matchKeyword("invoice number: 7", h.Keywords.InvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, "invoice number", kw)
}

func TestCompiled_DoesNotMutateInput(t *testing.T) {
	h := DefaultHeuristics()
	h.Keywords.Total = []string{"TOTAL", "Amount Due"}

	_ = h.compiled()

	assert.Equal(t, []string{"TOTAL", "Amount Due"}, h.Keywords.Total)
}
