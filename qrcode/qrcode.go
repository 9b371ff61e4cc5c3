// Package qrcode renders install deep links as PNG images.
package qrcode

import (
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

var ErrQr = errors.New("failed to generate QR code")

// Generate encodes data into a PNG with high error correction, sized
// for a messaging-channel photo.
func Generate(data string) ([]byte, error) {
	png, err := qr.Encode(data, qr.High, 256)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQr, err)
	}
	return png, nil
}
