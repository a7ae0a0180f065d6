package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	return img
}

func TestPreprocess_UpscalesSmallImages(t *testing.T) {
	out := Preprocess(testImage(100, 50))

	assert.Equal(t, 180, out.Bounds().Dx())
	assert.Equal(t, 90, out.Bounds().Dy())
}

func TestPreprocess_KeepsLargeImages(t *testing.T) {
	out := Preprocess(testImage(2400, 10))

	assert.Equal(t, 2400, out.Bounds().Dx())
}

func TestEncodeDecodeImage(t *testing.T) {
	data, err := EncodePNG(testImage(20, 10))
	require.NoError(t, err)

	img, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestLinesFromText(t *testing.T) {
	lines := LinesFromText("ACME Co.\n\n  Total 10.00  \n")

	assert.Equal(t, []dto.OCRLine{{Text: "ACME Co."}, {Text: "Total 10.00"}}, lines)
}

func TestPaddleClient_Recognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["images"], 1)
		_, err := base64.StdEncoding.DecodeString(body["images"][0])
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"msg":"","results":[[
			{"text":"ACME Co.","confidence":0.98},
			{"text":"  ","confidence":0.1},
			{"text":"Total 107.00","confidence":0.91}
		]]}`))
	}))
	defer server.Close()

	p := NewPaddleClient(server.URL, 5*time.Second, zerolog.Nop())
	lines, err := p.Recognize(context.Background(), testImage(10, 10))
	require.NoError(t, err)

	assert.Equal(t, "paddle", p.Name())
	assert.Equal(t, []dto.OCRLine{
		{Text: "ACME Co.", Confidence: 0.98},
		{Text: "Total 107.00", Confidence: 0.91},
	}, lines)
}

func TestPaddleClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"bad json", http.StatusOK, "{"},
		{"no text", http.StatusOK, `{"results":[[]]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			p := NewPaddleClient(server.URL, time.Second, zerolog.Nop())
			_, err := p.Recognize(context.Background(), testImage(5, 5))
			assert.Error(t, err)
		})
	}
}

func TestPaddleClient_DefaultURL(t *testing.T) {
	p := NewPaddleClient("", time.Second, zerolog.Nop())
	assert.Equal(t, DefaultPaddleAPIURL, p.apiURL)
}
