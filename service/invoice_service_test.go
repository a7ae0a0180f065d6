package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Aashish23092/ocr-invoice-extraction/client"
	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/Aashish23092/ocr-invoice-extraction/utils/invoice"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	lines []dto.OCRLine
	err   error
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Recognize(_ context.Context, _ image.Image) ([]dto.OCRLine, error) {
	f.calls.Add(1)
	return f.lines, f.err
}

type fakePDF struct {
	text    string
	textErr error
	images  []image.Image
	imgErr  error
}

func (f *fakePDF) ExtractText([]byte, string) (string, error) { return f.text, f.textErr }

func (f *fakePDF) ExtractImages([]byte, string) ([]image.Image, error) { return f.images, f.imgErr }

var acmeLines = []dto.OCRLine{
	{Text: "ACME Co.", Confidence: 0.96},
	{Text: "Invoice No: 5521", Confidence: 0.90},
	{Text: "Date: 12/05/2024", Confidence: 0.92},
	{Text: "Subtotal 100.00", Confidence: 0.88},
	{Text: "VAT 7.00", Confidence: 0.86},
	{Text: "Total 107.00", Confidence: 0.88},
}

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(5, 5, color.Black)
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := client.EncodePNG(blankImage())
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, pdf PDFProcessor, engines ...client.Engine) *InvoiceService {
	t.Helper()
	extractor, err := invoice.NewExtractor(invoice.DefaultHeuristics())
	require.NoError(t, err)
	return NewInvoiceService(engines, pdf, extractor, 2, zerolog.Nop())
}

func TestParseText(t *testing.T) {
	svc := newTestService(t, &fakePDF{})

	resp := svc.ParseText(dto.ParseTextRequest{Text: "ACME Co.\nInvoice No: 5521\nDate: 12/05/2024\nSubtotal 100.00\nVAT 7.00\nTotal 107.00"})

	assert.Equal(t, dto.StatusDone, resp.Status)
	assert.Equal(t, dto.SourceText, resp.Source)
	assert.Equal(t, "ACME Co.", resp.VendorName)
	assert.Equal(t, "5521", resp.InvoiceNumber)
	assert.Equal(t, 107.0, resp.TotalAmount)
	assert.Equal(t, 7.0, resp.VATAmount)
	assert.Equal(t, 100.0, resp.SubtotalAmount)
	assert.Equal(t, 1.0, resp.Confidence)
}

func TestParseText_Sentinel(t *testing.T) {
	svc := newTestService(t, &fakePDF{})

	resp := svc.ParseText(dto.ParseTextRequest{Text: "OCR ERROR: engine crashed"})

	assert.Equal(t, dto.StatusError, resp.Status)
	assert.Equal(t, "OCR ERROR: engine crashed", resp.Message)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Equal(t, 0.0, resp.TotalAmount)
}

func TestParseText_SentinelLines(t *testing.T) {
	svc := newTestService(t, &fakePDF{})

	resp := svc.ParseText(dto.ParseTextRequest{Lines: []dto.OCRLine{
		{Text: "OCR ERROR: engine crashed", Confidence: 0.4},
	}})

	assert.Equal(t, dto.StatusError, resp.Status)
	assert.Equal(t, "OCR ERROR: engine crashed", resp.Message)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Equal(t, 0.0, resp.OCRConfidence)
}

func TestParseText_Lines(t *testing.T) {
	svc := newTestService(t, &fakePDF{})

	resp := svc.ParseText(dto.ParseTextRequest{Lines: acmeLines})

	assert.Equal(t, 107.0, resp.TotalAmount)
	assert.Equal(t, 0.9, resp.OCRConfidence)
}

func TestExtractFile_ImageFallsBackToNextEngine(t *testing.T) {
	paddle := &fakeEngine{name: "paddle", err: errors.New("connection refused")}
	tesseract := &fakeEngine{name: "tesseract", lines: acmeLines}
	svc := newTestService(t, &fakePDF{}, paddle, tesseract)

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "receipt.png", Data: pngBytes(t)})
	require.NoError(t, err)

	assert.Equal(t, dto.StatusDone, resp.Status)
	assert.Equal(t, dto.SourceImageOCR, resp.Source)
	assert.Equal(t, "tesseract", resp.OCREngine)
	assert.Equal(t, "receipt.png", resp.FileName)
	assert.Equal(t, "ACME Co.", resp.VendorName)
	assert.Equal(t, 107.0, resp.TotalAmount)
	assert.Equal(t, 0.9, resp.OCRConfidence)
	assert.Empty(t, resp.ReferenceNumber)
	assert.Equal(t, int32(1), paddle.calls.Load())
	assert.Equal(t, int32(1), tesseract.calls.Load())
}

func TestExtractFile_AllEnginesFail(t *testing.T) {
	svc := newTestService(t, &fakePDF{},
		&fakeEngine{name: "paddle", err: errors.New("timeout")},
		&fakeEngine{name: "tesseract", err: errors.New("no text recognized")},
	)

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "receipt.jpg", Data: pngBytes(t)})
	require.NoError(t, err)

	assert.Equal(t, dto.StatusError, resp.Status)
	assert.True(t, strings.HasPrefix(resp.Message, invoice.OCRErrorMarker))
	assert.Contains(t, resp.Message, "timeout")
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Empty(t, resp.VendorName)
}

func TestExtractFile_PDFTextLayer(t *testing.T) {
	engine := &fakeEngine{name: "tesseract", lines: acmeLines}
	pdf := &fakePDF{text: "ACME Co.\nInvoice No: 5521\nSubtotal 100.00\nVAT 7.00\nTotal 107.00\n"}
	svc := newTestService(t, pdf, engine)

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "invoice.PDF", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, dto.SourcePDFText, resp.Source)
	assert.Equal(t, 107.0, resp.TotalAmount)
	assert.Equal(t, int32(0), engine.calls.Load())
}

func TestExtractFile_ScannedPDF(t *testing.T) {
	engine := &fakeEngine{name: "tesseract", lines: acmeLines}
	pdf := &fakePDF{text: "  ", images: []image.Image{blankImage(), blankImage()}}
	svc := newTestService(t, pdf, engine)

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "scan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, dto.SourcePDFOCR, resp.Source)
	assert.Equal(t, "tesseract", resp.OCREngine)
	assert.Equal(t, int32(2), engine.calls.Load())
	assert.Equal(t, "ACME Co.", resp.VendorName)
}

func TestExtractFile_PDFWithoutImages(t *testing.T) {
	pdf := &fakePDF{textErr: errors.New("malformed"), imgErr: errors.New("no images found in pdf")}
	svc := newTestService(t, pdf, &fakeEngine{name: "tesseract", lines: acmeLines})

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "scan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, dto.StatusError, resp.Status)
	assert.Equal(t, 0.0, resp.Confidence)
}

func TestExtractFile_Errors(t *testing.T) {
	svc := newTestService(t, &fakePDF{}, &fakeEngine{name: "tesseract", lines: acmeLines})

	_, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "notes.txt", Data: []byte("hi")})
	assert.ErrorIs(t, err, dto.ErrUnsupportedFileType)

	_, err = svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "broken.png", Data: []byte("not png")})
	assert.ErrorIs(t, err, dto.ErrUnsupportedFileType)
}

func TestExtractFile_NoEngines(t *testing.T) {
	svc := newTestService(t, &fakePDF{})

	resp, err := svc.ExtractFile(context.Background(), dto.UploadedFile{Name: "receipt.png", Data: pngBytes(t)})
	require.NoError(t, err)

	assert.Equal(t, dto.StatusError, resp.Status)
	assert.Contains(t, resp.Message, dto.ErrNoOCREngine.Error())
}

func TestExtractFile_Canceled(t *testing.T) {
	svc := newTestService(t, &fakePDF{}, &fakeEngine{name: "tesseract", lines: acmeLines})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ExtractFile(ctx, dto.UploadedFile{Name: "receipt.png", Data: pngBytes(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractBatch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	svc := newTestService(t, &fakePDF{}, &fakeEngine{name: "tesseract", lines: acmeLines})
	data := pngBytes(t)

	batch := svc.ExtractBatch(context.Background(), []dto.UploadedFile{
		{Name: "a.png", Data: data},
		{Name: "b.txt", Data: []byte("x")},
		{Name: "c.png", Data: data},
	})

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 1, batch.Failed)

	assert.Equal(t, "a.png", batch.Results[0].FileName)
	assert.Equal(t, 107.0, batch.Results[0].TotalAmount)

	assert.Equal(t, "b.txt", batch.Results[1].FileName)
	assert.Equal(t, dto.StatusError, batch.Results[1].Status)
	assert.NotEmpty(t, batch.Results[1].ProcessedAt)

	assert.Equal(t, "c.png", batch.Results[2].FileName)
	assert.Equal(t, dto.StatusDone, batch.Results[2].Status)
}
