package transform

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SignParams overlays a rendered signature bitmap onto the document.
// SignatureImage carries the bitmap bytes base64-encoded, optionally with
// a data URI prefix.
type SignParams struct {
	SignatureImage string `json:"signature_image"`
}

// signature anchor: bottom-right corner, offset inward.
const (
	signMarginRatio = 20
	signWidthRatio  = 4
)

// signContent places the signature at a fixed anchor. PDFs stamp the
// first page only; images composite the bitmap in the bottom-right corner.
func signContent(data []byte, mimeType string, params SignParams) ([]byte, error) {
	sig, err := decodeSignature(params.SignatureImage)
	if err != nil {
		return nil, err
	}

	switch KindOf(mimeType) {
	case KindPDF:
		return signPDF(data, sig)
	case KindImage:
		return signImage(data, mimeType, sig)
	default:
		return nil, fmt.Errorf("%w: cannot sign %s", ErrUnsupportedMediaType, mimeType)
	}
}

func signPDF(data, sig []byte) ([]byte, error) {
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(sig),
		"pos:br, off:-24 24, scale:0.2 rel, rot:0, op:1",
		true, false, displayUnit())
	if err != nil {
		return nil, fmt.Errorf("signature definition: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &out, []string{"1"}, wm, pdfConfig()); err != nil {
		return nil, fmt.Errorf("%w: sign: %v", ErrUnsupportedMediaType, err)
	}

	return out.Bytes(), nil
}

func signImage(data []byte, mimeType string, sig []byte) ([]byte, error) {
	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	sigImg, _, err := image.Decode(bytes.NewReader(sig))
	if err != nil {
		return nil, validationErr("cannot decode signature image: %v", err)
	}

	bounds := src.Bounds()
	sigWidth := bounds.Dx() / signWidthRatio
	if sigWidth < 1 {
		sigWidth = bounds.Dx()
	}
	scaled := imaging.Resize(sigImg, sigWidth, 0, imaging.Lanczos)

	margin := bounds.Dx() / signMarginRatio
	anchor := image.Pt(
		bounds.Max.X-scaled.Bounds().Dx()-margin,
		bounds.Max.Y-scaled.Bounds().Dy()-margin,
	)

	out := imaging.Overlay(src, scaled, anchor, 1.0)
	return encodeImage(out, mimeType, 0)
}

func decodeSignature(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, validationErr("sign requires signature_image")
	}

	// Accept data URIs from canvas-drawn signatures.
	if idx := strings.Index(encoded, ","); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}

	sig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, validationErr("signature_image is not valid base64: %v", err)
	}
	return sig, nil
}
