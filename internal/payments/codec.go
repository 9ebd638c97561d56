package payments

import (
	"errors"
	"fmt"
	"io"

	"github.com/sagaragarwal94/qr-crypto/internal/qrcode"
)

// ErrDecode wraps every failure to recover a payload from an uploaded image.
var ErrDecode = errors.New("could not decode transfer code")

// Codec turns payloads into QR images and back.
type Codec struct {
	size int
}

// NewCodec renders codes at size pixels per edge.
func NewCodec(size int) *Codec {
	return &Codec{size: size}
}

// Encode returns the payload for phone and amount together with its PNG QR image.
func (c *Codec) Encode(phone string, amount int64) (string, []byte, error) {
	payload, err := EncodePayload(phone, amount)
	if err != nil {
		return "", nil, err
	}
	img, err := c.Image(payload)
	if err != nil {
		return "", nil, err
	}
	return payload, img, nil
}

// Image renders an already encoded payload as PNG.
func (c *Codec) Image(payload string) ([]byte, error) {
	return qrcode.EncodePNG(payload, c.size)
}

// Decode reads a QR image and parses its payload.
func (c *Codec) Decode(r io.Reader) (Payload, error) {
	content, err := qrcode.Decode(r)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	p, err := DecodePayload(content)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return p, nil
}
