package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/disintegration/imaging"
)

// Engine recognizes text lines in a document image.
// Implementations are safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]dto.OCRLine, error)
}

const (
	// below this width images are upscaled before recognition
	minOCRWidth   = 2000
	upscaleFactor = 1.8
)

// Preprocess prepares a scan for OCR: grayscale, upscale small images, raise contrast, sharpen.
func Preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	if w := out.Bounds().Dx(); w > 0 && w < minOCRWidth {
		out = imaging.Resize(out, int(float64(w)*upscaleFactor), 0, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 0.8)
}

// DecodeImage decodes an uploaded image honoring its EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// LinesFromText splits plain recognized text into lines with unknown confidence.
func LinesFromText(text string) []dto.OCRLine {
	var lines []dto.OCRLine
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, dto.OCRLine{Text: l})
		}
	}
	return lines
}
