package client

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
)

// TesseractClient runs Tesseract through gosseract. Native clients are created lazily,
// used by one goroutine at a time and kept in a bounded idle pool.
type TesseractClient struct {
	dataPath  string
	languages []string
	idle      chan *gosseract.Client
	log       zerolog.Logger
}

func NewTesseractClient(dataPath string, languages []string, poolSize int, logger zerolog.Logger) *TesseractClient {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if poolSize < 1 {
		poolSize = 1
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: languages,
		idle:      make(chan *gosseract.Client, poolSize),
		log:       logger.With().Str("engine", "tesseract").Logger(),
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// Recognize returns the text lines of img with Tesseract's per-line confidence.
func (tc *TesseractClient) Recognize(ctx context.Context, img image.Image) ([]dto.OCRLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := EncodePNG(Preprocess(img))
	if err != nil {
		return nil, err
	}

	client, err := tc.acquire()
	if err != nil {
		return nil, err
	}
	defer tc.release(client)

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// If bounding boxes fail, fall back to plain text without confidence
		tc.log.Warn().Err(err).Msg("line boxes unavailable")
		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text: %w", err)
		}
		return nonEmpty(LinesFromText(text))
	}

	lines := make([]dto.OCRLine, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		lines = append(lines, dto.OCRLine{Text: text, Confidence: box.Confidence / 100})
	}
	tc.log.Debug().Int("lines", len(lines)).Msg("recognized")
	return nonEmpty(lines)
}

func (tc *TesseractClient) acquire() (*gosseract.Client, error) {
	select {
	case c := <-tc.idle:
		return c, nil
	default:
	}

	c := gosseract.NewClient()
	if tc.dataPath != "" {
		c.SetTessdataPrefix(tc.dataPath)
	}
	if err := c.SetLanguage(tc.languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	tc.log.Debug().Strs("languages", tc.languages).Msg("tesseract client created")
	return c, nil
}

func (tc *TesseractClient) release(c *gosseract.Client) {
	select {
	case tc.idle <- c:
	default:
		c.Close()
	}
}

// Close releases the idle native clients.
func (tc *TesseractClient) Close() {
	for {
		select {
		case c := <-tc.idle:
			c.Close()
		default:
			tc.log.Info().Msg("Tesseract client closed")
			return
		}
	}
}

var errNoText = errors.New("no text recognized")

func nonEmpty(lines []dto.OCRLine) ([]dto.OCRLine, error) {
	if len(lines) == 0 {
		return nil, errNoText
	}
	return lines, nil
}
