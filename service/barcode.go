package service

import (
	"errors"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var ErrNoBarcode = errors.New("no barcode found")

// DecodeReference reads the first QR code or 1D barcode printed on a document.
// Thai e-tax receipts and many POS slips carry the document number this way.
func DecodeReference(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	readers := []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewCode128Reader(),
		oned.NewEAN13Reader(),
	}

	for _, reader := range readers {
		result, err := reader.Decode(bmp, hints)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(result.GetText()); text != "" {
			return text, nil
		}
	}
	return "", ErrNoBarcode
}
