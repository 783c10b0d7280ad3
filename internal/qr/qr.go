package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Generate renders a PNG QR code for the URL. High error correction so
// the code stays scannable on small phone screens.
func Generate(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.High, 512)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}
	return png, nil
}
