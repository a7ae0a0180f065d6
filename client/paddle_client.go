package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/rs/zerolog"
)

const DefaultPaddleAPIURL = "http://paddleocr:8866/predict/ocr_system"

// PaddleClient calls a PaddleOCR hub-serving endpoint over HTTP.
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewPaddleClient creates a new PaddleOCR client
func NewPaddleClient(apiURL string, timeout time.Duration, logger zerolog.Logger) *PaddleClient {
	if apiURL == "" {
		apiURL = DefaultPaddleAPIURL
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With().Str("engine", "paddle").Logger(),
	}
}

func (p *PaddleClient) Name() string { return "paddle" }

type paddleResponse struct {
	Msg     string `json:"msg"`
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// Recognize sends img to PaddleOCR and returns the recognized lines in reading order.
func (p *PaddleClient) Recognize(ctx context.Context, img image.Image) ([]dto.OCRLine, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string][]string{
		"images": {base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	var lines []dto.OCRLine
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			if text := strings.TrimSpace(line.Text); text != "" {
				lines = append(lines, dto.OCRLine{Text: text, Confidence: line.Confidence})
			}
		}
	}

	p.log.Debug().
		Int("lines", len(lines)).
		Dur("took", time.Since(start)).
		Msg("PaddleOCR HTTP API responded")
	return nonEmpty(lines)
}
