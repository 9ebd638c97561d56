package qrcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestPNGRoundTrip(t *testing.T) {
	for _, content := range []string{"555987654330", "55598765431", "otpauth://totp/2FA-Demo:alice?secret=JBSWY3DPEHPK3PXP&issuer=2FA-Demo"} {
		img, err := EncodePNG(content, 256)
		if err != nil {
			t.Fatalf("encode %q: %v", content, err)
		}
		got, err := Decode(bytes.NewReader(img))
		if err != nil {
			t.Fatalf("decode %q: %v", content, err)
		}
		if got != content {
			t.Fatalf("expected %q, got %q", content, got)
		}
	}
}

func TestEncodePNGRejectsEmpty(t *testing.T) {
	if _, err := EncodePNG("", 256); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestEncodeSVG(t *testing.T) {
	svg, err := EncodeSVG("otpauth://totp/2FA-Demo:alice?secret=JBSWY3DPEHPK3PXP&issuer=2FA-Demo", 3)
	if err != nil {
		t.Fatalf("encode svg: %v", err)
	}
	doc := string(svg)
	if !strings.Contains(doc, "<svg") || !strings.HasSuffix(doc, "</svg>") {
		t.Fatalf("not an svg document: %.80s", doc)
	}
	if !strings.Contains(doc, "M") {
		t.Fatalf("expected dark modules in path")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestDecodeRejectsBlankImage(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		t.Fatalf("encode blank: %v", err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	huge := image.NewGray(image.Rect(0, 0, MaxDimension+1, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, huge); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestIsDark(t *testing.T) {
	if !isDark(color.Black) || isDark(color.White) {
		t.Fatalf("isDark misclassifies black/white")
	}
}
