// Command invoice-extract extracts invoice fields from OCR text read from a file or stdin.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/config"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("invoice-extract")
	var (
		input      = fs.StringLong("input", "", "OCR text file to read (default stdin)")
		heuristics = fs.StringLong("heuristics", "", "YAML heuristics file overriding the defaults")
		explain    = fs.BoolLong("explain", "print every pipeline stage instead of the result")
		pretty     = fs.BoolLong("pretty", "indent JSON output")
		logLevel   = fs.StringLong("log-level", "warn", "log level")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("INVOICE_EXTRACT")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	logger := config.NewLogger(*logLevel, stderr)

	h, err := config.LoadHeuristics(*heuristics)
	if err != nil {
		return err
	}
	extractor, err := invoice.NewExtractor(h)
	if err != nil {
		return err
	}

	text, err := readInput(*input, stdin)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	if *explain {
		return enc.Encode(extractor.Explain(text))
	}

	resp := dto.InvoiceExtractResponse{
		FileName:    *input,
		Status:      dto.StatusDone,
		Source:      dto.SourceText,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if invoice.IsErrorText(text) {
		resp.Status = dto.StatusError
	}
	resp.ApplyResult(extractor.Extract(text))

	if resp.Confidence < 0.5 {
		logger.Warn().Float64("confidence", resp.Confidence).Bool("needs_review", true).Msg("low confidence extraction")
	}
	return enc.Encode(resp)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
