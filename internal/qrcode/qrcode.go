// Package qrcode renders text as QR symbols (PNG or SVG) and reads text back
// out of uploaded images.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register decoder for uploads
	_ "image/jpeg" // register decoder for uploads
	"image/png"
	"io"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/makiuchi-d/gozxing"
	gozxqr "github.com/makiuchi-d/gozxing/qrcode"
)

const (
	quietZone = 4
	// MaxDimension bounds the width and height of images accepted by Decode.
	MaxDimension = 4096
)

var (
	// ErrUnreadable is returned when an image cannot be decoded into QR text.
	ErrUnreadable = errors.New("qr code unreadable")
	// ErrEmptyContent is returned when asked to encode an empty string.
	ErrEmptyContent = errors.New("qr content is empty")
)

func encode(content string) (barcode.Barcode, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return code, nil
}

// EncodePNG renders content as a PNG of roughly size×size pixels including a
// white quiet zone. Modules are scaled by a whole factor so edges stay sharp.
func EncodePNG(content string, size int) ([]byte, error) {
	code, err := encode(content)
	if err != nil {
		return nil, err
	}

	modules := code.Bounds().Dx()
	factor := size / (modules + 2*quietZone)
	if factor < 1 {
		factor = 1
	}
	scaled, err := barcode.Scale(code, modules*factor, modules*factor)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}

	margin := quietZone * factor
	edge := modules*factor + 2*margin
	canvas := image.NewGray(image.Rect(0, 0, edge, edge))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, scaled.Bounds().Add(image.Pt(margin, margin)), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeSVG renders content as an SVG document where each module is scale
// user units wide.
func EncodeSVG(content string, scale int) ([]byte, error) {
	code, err := encode(content)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}

	bounds := code.Bounds()
	modules := bounds.Dx()
	edge := (modules + 2*quietZone) * scale

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, edge, edge, edge, edge)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="#fff"/>`, edge, edge)
	sb.WriteString(`<path fill="#000" d="`)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < modules; x++ {
			if !isDark(code.At(bounds.Min.X+x, bounds.Min.Y+y)) {
				continue
			}
			fmt.Fprintf(&sb, "M%d %dh%dv%dh-%dz", (x+quietZone)*scale, (y+quietZone)*scale, scale, scale, scale)
		}
	}
	sb.WriteString(`"/></svg>`)
	return []byte(sb.String()), nil
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 < 0x8000
}

// Decode reads a single QR symbol from an encoded PNG, JPEG or GIF image.
// Oversized images are rejected before pixel data is decoded.
func Decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return "", fmt.Errorf("%w: image %dx%d exceeds %dpx", ErrUnreadable, cfg.Width, cfg.Height, MaxDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := gozxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return result.GetText(), nil
}
