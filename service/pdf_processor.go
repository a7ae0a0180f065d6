package service

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor reads the text layer or the embedded page images of a PDF.
type PDFProcessor interface {
	ExtractText(pdfData []byte, password string) (string, error)
	ExtractImages(pdfData []byte, password string) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// ExtractText returns the text layer row by row. Encrypted files are decrypted
// with pdfcpu first because ledongthuc/pdf cannot open them.
func (p *pdfProcessor) ExtractText(pdfData []byte, password string) (string, error) {
	if password != "" {
		decrypted, err := decryptPDF(pdfData, password)
		if err != nil {
			return "", err
		}
		pdfData = decrypted
	}

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", pageIndex, err)
		}
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					prev := row.Content[i-1]
					// glyph runs with a visible gap are separate words
					if word.X-(prev.X+prev.W) > prev.FontSize*0.2 {
						textBuilder.WriteByte(' ')
					}
				}
				textBuilder.WriteString(word.S)
			}
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), nil
}

// ExtractImages returns the images embedded in the PDF in page order.
func (p *pdfProcessor) ExtractImages(pdfData []byte, password string) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "pdf_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile := filepath.Join(tempDir, "doc.pdf")
	if err := os.WriteFile(tempFile, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	// nil selects all pages
	if err := api.ExtractImagesFile(tempFile, outDir, nil, pdfConfig(password)); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	var images []image.Image
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		img, err := imaging.Open(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images found in pdf")
	}
	return images, nil
}

func pdfConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

func decryptPDF(pdfData []byte, password string) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(pdfData), &out, pdfConfig(password)); err != nil {
		return nil, fmt.Errorf("failed to decrypt pdf: %w", err)
	}
	return out.Bytes(), nil
}
