package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// a PDF text layer shorter than this is treated as a scanned document
	minTextLayerChars = 20

	lowConfidence = 0.5
)

type InvoiceService struct {
	engines      []client.Engine
	pdfProcessor PDFProcessor
	extractor    *invoice.Extractor
	concurrency  int
	log          zerolog.Logger
}

// NewInvoiceService wires OCR engines, tried in order, to the field extractor.
func NewInvoiceService(
	engines []client.Engine,
	pdfProcessor PDFProcessor,
	extractor *invoice.Extractor,
	concurrency int,
	logger zerolog.Logger,
) *InvoiceService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &InvoiceService{
		engines:      engines,
		pdfProcessor: pdfProcessor,
		extractor:    extractor,
		concurrency:  concurrency,
		log:          logger.With().Str("component", "invoice_service").Logger(),
	}
}

// ParseText extracts fields from text that was recognized elsewhere.
func (s *InvoiceService) ParseText(req dto.ParseTextRequest) dto.InvoiceExtractResponse {
	resp := newResponse("", dto.SourceText)

	text := req.Text
	var res dto.ExtractionResult
	if len(req.Lines) > 0 {
		text = joinLines(req.Lines)
		res = s.extractor.ExtractLines(req.Lines)
	} else {
		res = s.extractor.Extract(text)
	}
	if invoice.IsErrorText(text) {
		resp.Status = dto.StatusError
		resp.Message = strings.TrimSpace(text)
	}

	resp.ApplyResult(res)
	s.logResult(resp)
	return resp
}

// ExtractFile recognizes an uploaded PDF or image and extracts its fields.
// OCR failures yield a zero-confidence response with status "error"; only invalid
// input and cancellation are returned as errors.
func (s *InvoiceService) ExtractFile(ctx context.Context, f dto.UploadedFile) (dto.InvoiceExtractResponse, error) {
	var (
		resp   dto.InvoiceExtractResponse
		images []image.Image
	)

	switch {
	case dto.IsPDF(f.Name):
		text, err := s.pdfProcessor.ExtractText(f.Data, f.Password)
		if err == nil && len(strings.TrimSpace(text)) >= minTextLayerChars {
			resp = newResponse(f.Name, dto.SourcePDFText)
			resp.RawText = text
			resp.ApplyResult(s.extractor.Extract(text))
			s.logResult(resp)
			return resp, nil
		}
		if err != nil {
			s.log.Debug().Err(err).Str("file", f.Name).Msg("pdf text layer unavailable")
		}

		resp = newResponse(f.Name, dto.SourcePDFOCR)
		images, err = s.pdfProcessor.ExtractImages(f.Data, f.Password)
		if err != nil {
			return s.ocrFailed(resp, err), nil
		}

	case dto.IsImage(f.Name):
		resp = newResponse(f.Name, dto.SourceImageOCR)
		img, err := client.DecodeImage(f.Data)
		if err != nil {
			return resp, fmt.Errorf("%w: %v", dto.ErrUnsupportedFileType, err)
		}
		images = []image.Image{img}

	default:
		return newResponse(f.Name, ""), dto.ErrUnsupportedFileType
	}

	if ref, err := DecodeReference(images[0]); err == nil {
		resp.ReferenceNumber = ref
	}

	lines, engine, err := s.recognize(ctx, images)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, ctxErr
		}
		return s.ocrFailed(resp, err), nil
	}

	resp.OCREngine = engine
	resp.RawText = joinLines(lines)
	resp.ApplyResult(s.extractor.ExtractLines(lines))
	s.logResult(resp)
	return resp, nil
}

// ExtractBatch processes files concurrently and returns results in upload order.
// A failing file never aborts the others.
func (s *InvoiceService) ExtractBatch(ctx context.Context, files []dto.UploadedFile) dto.BatchExtractResponse {
	results := make([]dto.InvoiceExtractResponse, len(files))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, f := range files {
		g.Go(func() error {
			resp, err := s.ExtractFile(ctx, f)
			if err != nil {
				resp.FileName = f.Name
				resp.Status = dto.StatusError
				resp.Message = err.Error()
				if resp.ProcessedAt == "" {
					resp.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
				}
			}
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	batch := dto.BatchExtractResponse{Results: results}
	for _, r := range results {
		if r.Status == dto.StatusError {
			batch.Failed++
		}
	}
	s.log.Info().Int("files", len(files)).Int("failed", batch.Failed).Msg("batch extraction completed")
	return batch
}

// recognize OCRs every page with the first engine that succeeds on it.
func (s *InvoiceService) recognize(ctx context.Context, images []image.Image) ([]dto.OCRLine, string, error) {
	if len(s.engines) == 0 {
		return nil, "", dto.ErrNoOCREngine
	}

	var (
		all  []dto.OCRLine
		used []string
	)
	for page, img := range images {
		lines, engine, err := s.recognizePage(ctx, img)
		if err != nil {
			return nil, "", fmt.Errorf("page %d: %w", page+1, err)
		}
		all = append(all, lines...)
		if !slices.Contains(used, engine) {
			used = append(used, engine)
		}
	}
	return all, strings.Join(used, ","), nil
}

func (s *InvoiceService) recognizePage(ctx context.Context, img image.Image) ([]dto.OCRLine, string, error) {
	var errs []error
	for _, engine := range s.engines {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		lines, err := engine.Recognize(ctx, img)
		if err == nil {
			return lines, engine.Name(), nil
		}
		s.log.Warn().Err(err).Str("engine", engine.Name()).Msg("OCR engine failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", engine.Name(), err))
	}
	return nil, "", errors.Join(errs...)
}

// ocrFailed feeds the OCR error marker through the extractor so the response
// carries the same all-default fields as any unreadable document.
func (s *InvoiceService) ocrFailed(resp dto.InvoiceExtractResponse, err error) dto.InvoiceExtractResponse {
	s.log.Error().Err(err).Str("file", resp.FileName).Msg("OCR failed")
	resp.Status = dto.StatusError
	resp.Message = invoice.ErrorText(err)
	resp.ApplyResult(s.extractor.Extract(resp.Message))
	return resp
}

func (s *InvoiceService) logResult(resp dto.InvoiceExtractResponse) {
	var evt *zerolog.Event
	if resp.Confidence < lowConfidence {
		evt = s.log.Warn().Bool("needs_review", true)
	} else {
		evt = s.log.Info()
	}
	evt.Str("file", resp.FileName).
		Str("source", resp.Source).
		Str("engine", resp.OCREngine).
		Float64("confidence", resp.Confidence).
		Float64("total", resp.TotalAmount).
		Msg("invoice extracted")
}

func newResponse(name, source string) dto.InvoiceExtractResponse {
	return dto.InvoiceExtractResponse{
		FileName:    name,
		Status:      dto.StatusDone,
		Source:      source,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func joinLines(lines []dto.OCRLine) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}
