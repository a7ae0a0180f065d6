package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort         string
	TesseractDataPath  string
	TesseractLanguages []string
	OCREngines         []string
	PaddleAPIURL       string
	PaddleTimeout      time.Duration
	OCRPoolSize        int
	MaxFileSize        int64
	BatchConcurrency   int
	LogLevel           string
	HeuristicsFile     string
	Heuristics         invoice.Heuristics
}

// ValidationError names a configuration field and what is wrong with it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadConfig reads the environment, applies defaults and loads the heuristics file if set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		TesseractDataPath:  getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),
		TesseractLanguages: getEnvAsList("TESSERACT_LANGUAGES", []string{"eng", "tha"}),
		OCREngines:         getEnvAsList("OCR_ENGINES", []string{"paddle", "tesseract"}),
		PaddleAPIURL:       getEnv("PADDLEOCR_API_URL", ""),
		PaddleTimeout:      getEnvAsDuration("PADDLEOCR_TIMEOUT", 30*time.Second),
		OCRPoolSize:        getEnvAsInt("OCR_POOL_SIZE", 2),
		MaxFileSize:        int64(getEnvAsInt("MAX_FILE_SIZE", 10*1024*1024)), // 10 MB
		BatchConcurrency:   getEnvAsInt("BATCH_CONCURRENCY", 4),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HeuristicsFile:     getEnv("HEURISTICS_FILE", ""),
	}

	h, err := LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return nil, err
	}
	cfg.Heuristics = h

	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(joined...))
	}
	return cfg, nil
}

// LoadHeuristics overlays the YAML file at path on the default heuristics.
// Keys missing from the file keep their default value. An empty path yields the defaults.
func LoadHeuristics(path string) (invoice.Heuristics, error) {
	h := invoice.DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("failed to read heuristics file: %w", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("failed to parse heuristics file: %w", err)
	}
	if err := h.Validate(); err != nil {
		return h, fmt.Errorf("heuristics file %s: %w", path, err)
	}
	return h, nil
}

var knownEngines = map[string]bool{"paddle": true, "tesseract": true}

// Validate returns every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if port, err := strconv.Atoi(c.ServerPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: "must be a port number"})
	}
	if len(c.OCREngines) == 0 {
		errs = append(errs, ValidationError{Field: "OCR_ENGINES", Message: "at least one engine is required"})
	}
	for _, e := range c.OCREngines {
		if !knownEngines[e] {
			errs = append(errs, ValidationError{Field: "OCR_ENGINES", Message: fmt.Sprintf("unknown engine %q", e)})
		}
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, ValidationError{Field: "MAX_FILE_SIZE", Message: "must be positive"})
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, ValidationError{Field: "BATCH_CONCURRENCY", Message: "must be at least 1"})
	}
	if c.OCRPoolSize < 1 {
		errs = append(errs, ValidationError{Field: "OCR_POOL_SIZE", Message: "must be at least 1"})
	}
	return errs
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
