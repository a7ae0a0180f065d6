package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "TESSDATA_PREFIX", "TESSERACT_LANGUAGES", "OCR_ENGINES",
		"PADDLEOCR_API_URL", "PADDLEOCR_TIMEOUT", "OCR_POOL_SIZE", "MAX_FILE_SIZE",
		"BATCH_CONCURRENCY", "LOG_LEVEL", "HEURISTICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"eng", "tha"}, cfg.TesseractLanguages)
	assert.Equal(t, []string{"paddle", "tesseract"}, cfg.OCREngines)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.PaddleTimeout)
	assert.Equal(t, invoice.DefaultHeuristics(), cfg.Heuristics)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OCR_ENGINES", "Tesseract")
	t.Setenv("TESSERACT_LANGUAGES", "eng, tha ,")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("PADDLEOCR_TIMEOUT", "5s")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, []string{"tesseract"}, cfg.OCREngines)
	assert.Equal(t, []string{"eng", "tha"}, cfg.TesseractLanguages)
	assert.Equal(t, 8, cfg.BatchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.PaddleTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port", "SERVER_PORT", "http"},
		{"engine", "OCR_ENGINES", "azure"},
		{"concurrency", "BATCH_CONCURRENCY", "0"},
		{"heuristics file", "HEURISTICS_FILE", "/does/not/exist.yaml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ReportsEveryInvalidSetting(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "99999")
	t.Setenv("OCR_ENGINES", "azure")
	t.Setenv("BATCH_CONCURRENCY", "0")

	_, err := LoadConfig()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "OCR_ENGINES")
	assert.Contains(t, err.Error(), "BATCH_CONCURRENCY")

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "SERVER_PORT", verr.Field)
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := &Config{ServerPort: "0", OCREngines: []string{"ocr"}, MaxFileSize: 0, BatchConcurrency: 0, OCRPoolSize: 0}

	errs := cfg.Validate()

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"SERVER_PORT", "OCR_ENGINES", "MAX_FILE_SIZE", "BATCH_CONCURRENCY", "OCR_POOL_SIZE"}, fields)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadHeuristics_Overlay(t *testing.T) {
	path := writeFile(t, `
version: "store-42"
top_cut: 0.4
vat_ratio_max: 0.2
weights:
  vendor: 0.3
keywords:
  total:
    - "grand total"
    - "net payable"
`)

	h, err := LoadHeuristics(path)
	require.NoError(t, err)

	def := invoice.DefaultHeuristics()
	assert.Equal(t, "store-42", h.Version)
	assert.Equal(t, 0.4, h.TopCut)
	assert.Equal(t, 0.2, h.VATRatioMax)
	assert.Equal(t, 0.3, h.Weights.Vendor)
	assert.Equal(t, []string{"grand total", "net payable"}, h.Keywords.Total)

	assert.Equal(t, def.MiddleCut, h.MiddleCut)
	assert.Equal(t, def.VATRatioMin, h.VATRatioMin)
	assert.Equal(t, def.Weights.Total, h.Weights.Total)
	assert.Equal(t, def.Keywords.Tax, h.Keywords.Tax)
	assert.True(t, h.SkipIdentifierLines)
}

func TestLoadHeuristics_Errors(t *testing.T) {
	_, err := LoadHeuristics(writeFile(t, "top_cut: [1, 2"))
	assert.Error(t, err)

	_, err = LoadHeuristics(writeFile(t, "top_cut: 0.9\nmiddle_cut: 0.5\n"))
	assert.ErrorIs(t, err, invoice.ErrInvalidHeuristics)
}

func TestLoadHeuristics_EmptyPath(t *testing.T) {
	h, err := LoadHeuristics("")
	require.NoError(t, err)
	assert.Equal(t, invoice.DefaultHeuristics(), h)
}
